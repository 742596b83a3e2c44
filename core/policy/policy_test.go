package policy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
)

var (
	admin   = Actor{ID: "adm", Role: RoleAdmin}
	mentor  = Actor{ID: "men", Role: RoleMentor}
	student = Actor{ID: "stu", Role: RoleStudent}
)

func TestCan(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		action Action
		res    Resource
		want   bool
		hidden bool
	}{
		// course
		{name: "admin creates course", actor: admin, action: ActionCreate, res: Resource{Kind: KindCourse}, want: true},
		{name: "mentor creates course", actor: mentor, action: ActionCreate, res: Resource{Kind: KindCourse}, want: true},
		{name: "student cannot create course", actor: student, action: ActionCreate, res: Resource{Kind: KindCourse}},
		{name: "mentor reads own pending course", actor: mentor, action: ActionRead, res: Resource{Kind: KindCourse, MentorID: "men"}, want: true},
		{name: "mentor reads foreign pending course", actor: mentor, action: ActionRead, res: Resource{Kind: KindCourse, MentorID: "other"}, hidden: true},
		{name: "mentor reads foreign approved course", actor: mentor, action: ActionRead, res: Resource{Kind: KindCourse, MentorID: "other", Public: true}, want: true},
		{name: "student reads approved course", actor: student, action: ActionRead, res: Resource{Kind: KindCourse, Public: true}, want: true},
		{name: "student reads pending course", actor: student, action: ActionRead, res: Resource{Kind: KindCourse}, hidden: true},
		{name: "mentor updates own course", actor: mentor, action: ActionUpdate, res: Resource{Kind: KindCourse, MentorID: "men"}, want: true},
		{name: "mentor updates foreign course", actor: mentor, action: ActionUpdate, res: Resource{Kind: KindCourse, MentorID: "other"}},
		{name: "mentor cannot approve own course", actor: mentor, action: ActionApprove, res: Resource{Kind: KindCourse, MentorID: "men"}},
		{name: "admin approves course", actor: admin, action: ActionApprove, res: Resource{Kind: KindCourse}, want: true},
		{name: "mentor cannot delete own course", actor: mentor, action: ActionDelete, res: Resource{Kind: KindCourse, MentorID: "men"}},

		// enrollment
		{name: "student enrolls self", actor: student, action: ActionCreate, res: Resource{Kind: KindEnrollment, StudentID: "stu"}, want: true},
		{name: "student cannot enroll others", actor: student, action: ActionCreate, res: Resource{Kind: KindEnrollment, StudentID: "other"}},
		{name: "mentor cannot enroll", actor: mentor, action: ActionCreate, res: Resource{Kind: KindEnrollment, MentorID: "men"}},
		{name: "course mentor reads enrollment", actor: mentor, action: ActionRead, res: Resource{Kind: KindEnrollment, MentorID: "men", StudentID: "stu"}, want: true},
		{name: "student unenrolls self", actor: student, action: ActionDelete, res: Resource{Kind: KindEnrollment, StudentID: "stu"}, want: true},
		{name: "student cannot set completion", actor: student, action: ActionUpdate, res: Resource{Kind: KindEnrollment, StudentID: "stu"}},

		// task
		{name: "enrolled student reads task", actor: student, action: ActionRead, res: Resource{Kind: KindTask, Enrolled: true}, want: true},
		{name: "unenrolled student cannot read task", actor: student, action: ActionRead, res: Resource{Kind: KindTask}, hidden: true},
		{name: "course mentor updates task", actor: mentor, action: ActionUpdate, res: Resource{Kind: KindTask, MentorID: "men"}, want: true},

		// submission
		{name: "enrolled student submits", actor: student, action: ActionCreate, res: Resource{Kind: KindSubmission, StudentID: "stu", Enrolled: true}, want: true},
		{name: "unenrolled student cannot submit", actor: student, action: ActionCreate, res: Resource{Kind: KindSubmission, StudentID: "stu"}},
		{name: "course mentor grades", actor: mentor, action: ActionGrade, res: Resource{Kind: KindSubmission, MentorID: "men"}, want: true},
		{name: "student cannot grade own submission", actor: student, action: ActionGrade, res: Resource{Kind: KindSubmission, StudentID: "stu"}},
		{name: "student cannot delete submission", actor: student, action: ActionDelete, res: Resource{Kind: KindSubmission, StudentID: "stu"}},

		// attendance
		{name: "enrolled student checks in", actor: student, action: ActionCreate, res: Resource{Kind: KindAttendance, StudentID: "stu", Enrolled: true}, want: true},
		{name: "student checks out own record", actor: student, action: ActionUpdate, res: Resource{Kind: KindAttendance, StudentID: "stu"}, want: true},

		// material
		{name: "enrolled student reads visible material", actor: student, action: ActionRead, res: Resource{Kind: KindMaterial, Enrolled: true, Public: true}, want: true},
		{name: "enrolled student cannot read hidden material", actor: student, action: ActionRead, res: Resource{Kind: KindMaterial, Enrolled: true}, hidden: true},

		// certificate
		{name: "course mentor issues certificate", actor: mentor, action: ActionCreate, res: Resource{Kind: KindCertificate, MentorID: "men"}, want: true},
		{name: "student cannot issue certificate", actor: student, action: ActionCreate, res: Resource{Kind: KindCertificate, StudentID: "stu"}},
		{name: "student reads own certificate", actor: student, action: ActionRead, res: Resource{Kind: KindCertificate, StudentID: "stu"}, want: true},

		// fee reminder
		{name: "only admin creates fee reminder", actor: mentor, action: ActionCreate, res: Resource{Kind: KindFeeReminder}},
		{name: "student reads own fee reminder", actor: student, action: ActionRead, res: Resource{Kind: KindFeeReminder, StudentID: "stu"}, want: true},
		{name: "student cannot read foreign fee reminder", actor: student, action: ActionRead, res: Resource{Kind: KindFeeReminder, StudentID: "other"}, hidden: true},
		{name: "student cannot mark fee paid", actor: student, action: ActionUpdate, res: Resource{Kind: KindFeeReminder, StudentID: "stu"}},

		// mock interview
		{name: "student schedules own interview", actor: student, action: ActionCreate, res: Resource{Kind: KindMockInterview, StudentID: "stu"}, want: true},
		{name: "mentor party reads interview", actor: mentor, action: ActionRead, res: Resource{Kind: KindMockInterview, MentorID: "men", StudentID: "stu"}, want: true},
		{name: "outsider mentor cannot read interview", actor: mentor, action: ActionRead, res: Resource{Kind: KindMockInterview, MentorID: "other", StudentID: "stu"}, hidden: true},
		{name: "interview mentor gives feedback", actor: mentor, action: ActionFeedback, res: Resource{Kind: KindMockInterview, MentorID: "men"}, want: true},
		{name: "student cannot give feedback", actor: student, action: ActionFeedback, res: Resource{Kind: KindMockInterview, StudentID: "stu"}},

		// unknowns
		{name: "unknown kind", actor: admin, action: ActionRead, res: Resource{Kind: "potato"}},
		{name: "unknown action on kind", actor: admin, action: ActionGrade, res: Resource{Kind: KindCourse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Can(tt.actor, tt.action, tt.res)
			assert.Equal(t, tt.want, d.Allowed)
			if !tt.want {
				assert.Equal(t, tt.hidden, d.Hidden)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}

	// admin sees everything
	for kind, byAction := range rules {
		for action := range byAction {
			if d := Can(admin, action, Resource{Kind: kind}); !d.Allowed {
				t.Errorf("admin denied %s on %s", action, kind)
			}
		}
	}
}

func TestCan_studentCancelsOwnInterview(t *testing.T) {
	// cancel maps to delete in the rule table
	d := Can(student, ActionDelete, Resource{Kind: KindMockInterview, StudentID: student.ID})
	assert.True(t, d.Allowed)
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, allow().Err())
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(deny("nope").Err()))
	assert.Equal(t, core.ErrNotFound, errors.Cause(denyHidden("nope").Err()))
}

func TestFilter(t *testing.T) {
	resources := []Resource{
		{Kind: KindCourse, ID: "c1", MentorID: "men", Public: true},
		{Kind: KindCourse, ID: "c2", MentorID: "men"},          // pending, owned
		{Kind: KindCourse, ID: "c3", MentorID: "other"},        // pending, foreign
		{Kind: KindCourse, ID: "c4", MentorID: "other", Public: true},
	}

	ids := func(res []Resource) []string {
		out := make([]string, 0, len(res))
		for _, r := range res {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(Filter(admin, resources)))
	assert.Equal(t, []string{"c1", "c2", "c4"}, ids(Filter(mentor, resources)))
	assert.Equal(t, []string{"c1", "c4"}, ids(Filter(student, resources)))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		from    string
		to      string
		wantErr bool
	}{
		{name: "course pending to approved", kind: KindCourse, from: CoursePending, to: CourseApproved},
		{name: "course approved back to pending", kind: KindCourse, from: CourseApproved, to: CoursePending},
		{name: "course unknown status", kind: KindCourse, from: CoursePending, to: "lol", wantErr: true},
		{name: "enrollment to completed", kind: KindEnrollment, from: EnrollmentInProgress, to: EnrollmentCompleted},
		{name: "enrollment to dropped", kind: KindEnrollment, from: EnrollmentCompleted, to: EnrollmentDropped},
		{name: "enrollment unknown status", kind: KindEnrollment, from: EnrollmentInProgress, to: "lol", wantErr: true},
		{name: "interview scheduled to completed", kind: KindMockInterview, from: InterviewScheduled, to: InterviewCompleted},
		{name: "interview scheduled to cancelled", kind: KindMockInterview, from: InterviewScheduled, to: InterviewCancelled},
		{name: "interview completed to cancelled", kind: KindMockInterview, from: InterviewCompleted, to: InterviewCancelled, wantErr: true},
		{name: "interview cancelled to scheduled", kind: KindMockInterview, from: InterviewCancelled, to: InterviewScheduled, wantErr: true},
		{name: "interview idempotent", kind: KindMockInterview, from: InterviewCompleted, to: InterviewCompleted},
		{name: "fee pending to paid", kind: KindFeeReminder, from: FeePending, to: FeePaid},
		{name: "fee pending to overdue", kind: KindFeeReminder, from: FeePending, to: FeeOverdue},
		{name: "fee overdue to paid", kind: KindFeeReminder, from: FeeOverdue, to: FeePaid},
		{name: "fee paid to overdue", kind: KindFeeReminder, from: FeePaid, to: FeeOverdue, wantErr: true},
		{name: "fee paid to pending", kind: KindFeeReminder, from: FeePaid, to: FeePending, wantErr: true},
		{name: "fee idempotent", kind: KindFeeReminder, from: FeePaid, to: FeePaid},
		{name: "kind without lifecycle", kind: KindTask, from: "", to: "done", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.kind, tt.from, tt.to)
			if tt.wantErr {
				assert.Equal(t, core.ErrInvalidTransition, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
