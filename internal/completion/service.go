// Package completion orchestrates task completion: it evaluates the score,
// records the completion exactly once, applies points, and kicks off the
// best-effort side effects (photos, notifications).
package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/photo"
	"github.com/calder/choreboard/internal/scoring"
	"github.com/calder/choreboard/internal/store"
)

// ProofUploader stores proof photos and returns the public URLs of the ones
// that made it. Implemented by photo.Uploader.
type ProofUploader interface {
	UploadProofs(ctx context.Context, householdID, taskID, completionID int64, files []photo.File) []string
}

// Notifier fans completion events out to the rest of the household.
// Implementations must be best-effort; the service ignores their failures.
type Notifier interface {
	TaskCompleted(ctx context.Context, actor auth.AuthContext, task *model.Task, c *model.Completion)
	CompletionReviewed(ctx context.Context, task *model.Task, c *model.Completion, approved bool)
}

// Evidence is what the member submits along with "done".
type Evidence struct {
	TimeSpentMinutes *int
	Notes            string
	Photos           []photo.File
}

// Result is the immediate outcome returned to the submitting member.
type Result struct {
	Completion *model.Completion `json:"completion"`
	Points     int               `json:"points"`
	Streak     bool              `json:"maintains_streak"`
	Message    string            `json:"message"`
	// RejectedPhotos lists per-file validation messages for photos that were
	// not uploaded. The completion itself still succeeds.
	RejectedPhotos []string `json:"rejected_photos,omitempty"`
}

type Service struct {
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	completions *store.CompletionStore
	points      *store.PointsStore
	uploader    ProofUploader
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	tasks *store.TaskStore,
	assignments *store.AssignmentStore,
	completions *store.CompletionStore,
	points *store.PointsStore,
	uploader ProofUploader,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		tasks:       tasks,
		assignments: assignments,
		completions: completions,
		points:      points,
		uploader:    uploader,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// CompleteAssignment records that the acting user finished an assignment.
//
// Preconditions fail fast without mutating anything. The completion record and
// the assignment's status flip commit in one transaction; everything after
// that (points for approval-free tasks, photo upload, notifications) is
// applied best-effort and never rolls the completion back.
func (s *Service) CompleteAssignment(ctx context.Context, actor auth.AuthContext, assignmentID int64, ev Evidence) (*Result, error) {
	assignment, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return nil, upstream("Could not load assignment", err)
	}
	if assignment == nil {
		return nil, notFound("Assignment not found")
	}

	task, err := s.tasks.GetByID(assignment.TaskID)
	if err != nil {
		return nil, upstream("Could not load task", err)
	}
	if task == nil || task.HouseholdID != actor.HouseholdID {
		// Assignments outside the caller's household look like they don't exist.
		return nil, notFound("Assignment not found")
	}

	if assignment.AssignedTo != actor.UserID {
		return nil, forbidden("You are not assigned to this task")
	}
	if assignment.Status == model.AssignmentCompleted {
		return nil, conflict("Task is already completed")
	}

	photos, rejected := acceptPhotos(ev.Photos)

	completedAt := s.now()
	outcome := scoring.Evaluate(*task, assignment.DueDate, completedAt, scoring.Evidence{
		TimeSpentMinutes: ev.TimeSpentMinutes,
		Notes:            ev.Notes,
		PhotoCount:       len(photos),
	})

	record, err := s.completions.CreateForAssignment(assignmentID, store.CompletionParams{
		CompletedBy:     actor.UserID,
		CompletedAt:     completedAt,
		TimeSpent:       ev.TimeSpentMinutes,
		Notes:           ev.Notes,
		ApprovalStatus:  outcome.ApprovalStatus,
		PointsAwarded:   outcome.AwardPoints,
		MaintainsStreak: outcome.AwardStreak,
	})
	if errors.Is(err, store.ErrAssignmentCompleted) {
		return nil, conflict("Task is already completed")
	}
	if err != nil {
		return nil, upstream("Could not record completion", err)
	}

	if !outcome.RequiresApproval {
		// The completion already committed; a points failure here is logged
		// and left alone rather than unwinding the record.
		err := s.points.ApplyCompletion(actor.HouseholdID, actor.UserID, outcome.Points, outcome.MaintainsStreak, completedAt)
		if err != nil {
			s.logger.Error("points update failed after completion",
				"completion_id", record.ID, "user_id", actor.UserID, "error", err)
		}
	}

	if len(photos) > 0 && s.uploader != nil {
		urls := s.uploader.UploadProofs(ctx, actor.HouseholdID, task.ID, record.ID, photos)
		if len(urls) > 0 {
			if err := s.completions.SetProofURLs(record.ID, urls); err != nil {
				s.logger.Error("attach proof urls failed", "completion_id", record.ID, "error", err)
			} else {
				record.ProofURLs = urls
			}
		}
	}

	if s.notifier != nil {
		s.notifier.TaskCompleted(ctx, actor, task, record)
	}

	return &Result{
		Completion:     record,
		Points:         outcome.Points,
		Streak:         outcome.MaintainsStreak,
		Message:        outcome.Message,
		RejectedPhotos: rejected,
	}, nil
}

// Approve applies a pending completion: the points and streak flag stored at
// submission time go onto the member's totals, exactly once.
func (s *Service) Approve(ctx context.Context, actor auth.AuthContext, completionID int64, notes string) (*model.Completion, error) {
	record, task, err := s.loadForReview(actor, completionID)
	if err != nil {
		return nil, err
	}

	reviewed, err := s.completions.Review(completionID, model.ApprovalApproved, actor.UserID, notes, s.now())
	if errors.Is(err, store.ErrAlreadyReviewed) {
		return nil, conflict("Completion has already been reviewed")
	}
	if err != nil {
		return nil, upstream("Could not review completion", err)
	}

	err = s.points.ApplyCompletion(actor.HouseholdID, record.CompletedBy, record.PointsAwarded, record.MaintainsStreak, s.now())
	if err != nil {
		s.logger.Error("points update failed after approval",
			"completion_id", record.ID, "user_id", record.CompletedBy, "error", err)
	}

	if s.notifier != nil {
		s.notifier.CompletionReviewed(ctx, task, reviewed, true)
	}
	return reviewed, nil
}

// Reject marks a pending completion rejected. No points move.
func (s *Service) Reject(ctx context.Context, actor auth.AuthContext, completionID int64, notes string) (*model.Completion, error) {
	_, task, err := s.loadForReview(actor, completionID)
	if err != nil {
		return nil, err
	}

	reviewed, err := s.completions.Review(completionID, model.ApprovalRejected, actor.UserID, notes, s.now())
	if errors.Is(err, store.ErrAlreadyReviewed) {
		return nil, conflict("Completion has already been reviewed")
	}
	if err != nil {
		return nil, upstream("Could not review completion", err)
	}

	if s.notifier != nil {
		s.notifier.CompletionReviewed(ctx, task, reviewed, false)
	}
	return reviewed, nil
}

// PendingReviews lists the household's completions awaiting review.
func (s *Service) PendingReviews(actor auth.AuthContext) ([]model.Completion, error) {
	if actor.Role != model.RoleAdmin {
		return nil, forbidden("Only admins can review completions")
	}
	pending, err := s.completions.ListPendingByHousehold(actor.HouseholdID)
	if err != nil {
		return nil, upstream("Could not list pending completions", err)
	}
	return pending, nil
}

func (s *Service) loadForReview(actor auth.AuthContext, completionID int64) (*model.Completion, *model.Task, error) {
	if actor.Role != model.RoleAdmin {
		return nil, nil, forbidden("Only admins can review completions")
	}

	record, err := s.completions.GetByID(completionID)
	if err != nil {
		return nil, nil, upstream("Could not load completion", err)
	}
	if record == nil {
		return nil, nil, notFound("Completion not found")
	}

	assignment, err := s.assignments.GetByID(record.AssignmentID)
	if err != nil {
		return nil, nil, upstream("Could not load assignment", err)
	}
	if assignment == nil {
		return nil, nil, notFound("Completion not found")
	}

	task, err := s.tasks.GetByID(assignment.TaskID)
	if err != nil {
		return nil, nil, upstream("Could not load task", err)
	}
	if task == nil || task.HouseholdID != actor.HouseholdID {
		return nil, nil, notFound("Completion not found")
	}
	return record, task, nil
}

// acceptPhotos splits the submitted photos into the ones worth uploading and
// human-readable reasons for the rest.
func acceptPhotos(files []photo.File) ([]photo.File, []string) {
	if len(files) == 0 {
		return nil, nil
	}
	if errs := photo.Validate(files); len(errs) > 0 {
		var valid []photo.File
		var rejected []string
		if len(files) > photo.MaxFiles {
			for _, err := range errs {
				rejected = append(rejected, err.Error())
			}
			return nil, rejected
		}
		for _, f := range files {
			if ferrs := photo.Validate([]photo.File{f}); len(ferrs) > 0 {
				rejected = append(rejected, ferrs[0].Error())
				continue
			}
			valid = append(valid, f)
		}
		return valid, rejected
	}
	return files, nil
}
