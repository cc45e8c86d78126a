package scoring

import (
	"math"
	"time"

	"github.com/calder/choreboard/internal/model"
)

// Evidence is the caller-supplied completion payload. Only the photo count
// matters for scoring (it decorates the message); time spent and notes are
// carried through to the stored record untouched.
type Evidence struct {
	TimeSpentMinutes *int
	Notes            string
	PhotoCount       int
}

// Outcome is the result of evaluating a completion.
//
// Points and MaintainsStreak are what takes effect immediately: for tasks that
// require approval they are zeroed, because nothing is applied to UserPoints
// until an admin approves. AwardPoints and AwardStreak are the underlying
// timeliness-based result; they are persisted on the completion record and are
// what the approver applies later. For tasks without approval the two pairs
// are identical.
type Outcome struct {
	Points           int                  `json:"points"`
	MaintainsStreak  bool                 `json:"maintains_streak"`
	Message          string               `json:"message"`
	HasPhotos        bool                 `json:"has_photos"`
	RequiresApproval bool                 `json:"requires_approval"`
	ApprovalStatus   model.ApprovalStatus `json:"approval_status"`

	AwardPoints int  `json:"-"`
	AwardStreak bool `json:"-"`
}

const (
	msgCompleted  = "Task completed! 🎯"
	msgOnTime     = "Perfect timing! 🎯"
	msgGrace      = "Task completed! Try to stay on schedule 📅"
	msgLate       = "Completed late - let's get back on track! ⏰"
	msgForReview  = "Submitted for approval! ⏰"
	photoSuffix   = " 📸"
	reviewWithPix = "Submitted for approval! 📸 ⏰"
)

// Evaluate decides how a completion scores: how many points it awards
// (positive, zero, or negative), whether the streak continues, and whether the
// result is provisional pending admin approval. Pure and deterministic.
func Evaluate(task model.Task, dueDate *time.Time, completedAt time.Time, ev Evidence) Outcome {
	hasPhotos := ev.PhotoCount > 0

	var out Outcome
	out.HasPhotos = hasPhotos
	out.ApprovalStatus = model.ApprovalApproved

	switch {
	case dueDate == nil:
		// No deadline - always award full points.
		out.Points = task.Points
		out.MaintainsStreak = true
		out.Message = msgCompleted
	default:
		switch days := DaysOverdue(*dueDate, completedAt); {
		case days == 0:
			// On time, including early.
			out.Points = task.Points
			out.MaintainsStreak = true
			out.Message = msgOnTime
		case days == 1:
			// One-day grace period: streak survives, no points.
			out.Points = 0
			out.MaintainsStreak = true
			out.Message = msgGrace
		default:
			// Two or more days late: penalty and streak reset.
			out.Points = -task.Points
			out.MaintainsStreak = false
			out.Message = msgLate
		}
	}

	if hasPhotos {
		out.Message += photoSuffix
	}

	out.AwardPoints = out.Points
	out.AwardStreak = out.MaintainsStreak

	if task.RequiresApproval {
		// Nothing takes effect until an admin approves; the timeliness-based
		// award stays on AwardPoints/AwardStreak for the approver.
		out.Points = 0
		out.MaintainsStreak = false
		out.RequiresApproval = true
		out.ApprovalStatus = model.ApprovalPending
		if hasPhotos {
			out.Message = reviewWithPix
		} else {
			out.Message = msgForReview
		}
	}

	return out
}

// DaysOverdue compares calendar dates, not timestamps, so completing any time
// on the due date counts as on-time. Never negative.
func DaysOverdue(dueDate, completedAt time.Time) int {
	due := startOfDay(dueDate)
	completed := startOfDay(completedAt)

	diff := completed.Sub(due)
	days := int(math.Ceil(diff.Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
