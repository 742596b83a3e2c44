package policy

import (
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// Lifecycle states.
const (
	// Course approval
	CoursePending  = "pending"
	CourseApproved = "approved"
	CourseRejected = "rejected"

	// Enrollment completion
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
	EnrollmentDropped    = "dropped"

	// Mock interview
	InterviewScheduled = "scheduled"
	InterviewCompleted = "completed"
	InterviewCancelled = "cancelled"

	// Fee reminder
	FeePending = "pending"
	FeePaid    = "paid"
	FeeOverdue = "overdue"
)

var (
	CourseStatuses     = []string{CoursePending, CourseApproved, CourseRejected}
	EnrollmentStatuses = []string{EnrollmentInProgress, EnrollmentCompleted, EnrollmentDropped}
	InterviewStatuses  = []string{InterviewScheduled, InterviewCompleted, InterviewCancelled}
	FeeStatuses        = []string{FeePending, FeePaid, FeeOverdue}
)

func statusIn(status string, statuses []string) bool {
	for _, s := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

// Directed transition graphs for the constrained lifecycles. Course approval
// and enrollment completion deliberately stay unordered: the admin may move a
// course between pending/approved/rejected at will, and enrollment status
// follows the same observed behavior.
var (
	interviewGraph = map[string][]string{
		InterviewScheduled: {InterviewCompleted, InterviewCancelled},
	}
	feeGraph = map[string][]string{
		FeePending: {FeePaid, FeeOverdue},
		FeeOverdue: {FeePaid},
	}
)

// CanTransition validates a lifecycle move for a kind. Idempotent moves
// (from == to) are never an error. Who may perform the move is the rule
// table's concern, not this one's.
func CanTransition(kind Kind, from, to string) error {
	switch kind {
	case KindCourse:
		if !statusIn(to, CourseStatuses) {
			return errors.Wrapf(core.ErrInvalidTransition, "unknown course status %q", to)
		}
	case KindEnrollment:
		if !statusIn(to, EnrollmentStatuses) {
			return errors.Wrapf(core.ErrInvalidTransition, "unknown enrollment status %q", to)
		}
	case KindMockInterview:
		if from == to {
			return nil
		}
		if !statusIn(to, InterviewStatuses) {
			return errors.Wrapf(core.ErrInvalidTransition, "unknown interview status %q", to)
		}
		if !statusIn(to, interviewGraph[from]) {
			return errors.Wrapf(core.ErrInvalidTransition, "interview cannot move from %q to %q", from, to)
		}
	case KindFeeReminder:
		if from == to {
			return nil
		}
		if !statusIn(to, FeeStatuses) {
			return errors.Wrapf(core.ErrInvalidTransition, "unknown fee status %q", to)
		}
		if !statusIn(to, feeGraph[from]) {
			return errors.Wrapf(core.ErrInvalidTransition, "fee reminder cannot move from %q to %q", from, to)
		}
	default:
		return errors.Wrapf(core.ErrInvalidTransition, "%s has no lifecycle", kind)
	}
	return nil
}
