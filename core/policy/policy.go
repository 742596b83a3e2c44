// Package policy is the single source of truth for access control.
// Every operation on every resource kind goes through the same declarative
// rule table; handlers and services never hand-roll role checks.
package policy

import (
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleMentor, RoleStudent}

func ValidRole(r Role) bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsMentor() bool  { return a.Role == RoleMentor }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }

type Kind string

const (
	KindCourse        Kind = "course"
	KindEnrollment    Kind = "enrollment"
	KindTask          Kind = "task"
	KindSubmission    Kind = "submission"
	KindAttendance    Kind = "attendance"
	KindMaterial      Kind = "material"
	KindCertificate   Kind = "certificate"
	KindFeeReminder   Kind = "fee_reminder"
	KindMockInterview Kind = "mock_interview"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionList     Action = "list"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionApprove  Action = "approve"
	ActionGrade    Action = "grade"
	ActionFeedback Action = "feedback"
)

// Resource is the minimal resolved state a decision needs. Services resolve
// it from the store on every request; it is never cached across requests.
type Resource struct {
	Kind      Kind
	ID        string
	MentorID  string // owning mentor (course mentor for student-owned kinds)
	StudentID string // owning student, if any
	Status    string
	Public    bool // approved course; visible material
	Enrolled  bool // the acting student is enrolled in the resource's course
}

// Decision is the outcome of a policy evaluation. A denial with Hidden set
// must not acknowledge that the resource exists.
type Decision struct {
	Allowed bool
	Hidden  bool
	Reason  string
}

// Err converts the decision into the uniform error taxonomy: nil when
// allowed, ErrNotFound for hidden denials (existence is sensitive),
// ErrPermissionDenied otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Hidden {
		return errors.Wrap(core.ErrNotFound, d.Reason)
	}
	return errors.Wrap(core.ErrPermissionDenied, d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

func denyHidden(reason string) Decision { return Decision{Hidden: true, Reason: reason} }

// guard is the per-(role, action, kind) condition of the rule table.
type guard uint8

const (
	never guard = iota
	always
	owner          // actor id matches the owner field for the actor's role
	ownerOrPublic  // owner, or the resource is public
	publicOnly     // the resource is public
	enrolledOnly   // the acting student is enrolled in the resource's course
	enrolledPublic // enrolled and the resource is public
	ownerEnrolled  // owner and enrolled
	participant    // actor id matches either party of the resource
)

func (g guard) allows(a Actor, res Resource) bool {
	isOwner := func() bool {
		switch a.Role {
		case RoleMentor:
			return res.MentorID != "" && res.MentorID == a.ID
		case RoleStudent:
			return res.StudentID != "" && res.StudentID == a.ID
		}
		return false
	}

	switch g {
	case always:
		return true
	case owner:
		return isOwner()
	case ownerOrPublic:
		return isOwner() || res.Public
	case publicOnly:
		return res.Public
	case enrolledOnly:
		return res.Enrolled
	case enrolledPublic:
		return res.Enrolled && res.Public
	case ownerEnrolled:
		return isOwner() && res.Enrolled
	case participant:
		return a.ID != "" && (a.ID == res.MentorID || a.ID == res.StudentID)
	}
	return false
}

// rolePolicy holds one guard per role for a given (kind, action) cell.
type rolePolicy struct {
	admin   guard
	mentor  guard
	student guard
}

func (p rolePolicy) guardFor(r Role) guard {
	switch r {
	case RoleAdmin:
		return p.admin
	case RoleMentor:
		return p.mentor
	case RoleStudent:
		return p.student
	}
	return never
}

// rules is the whole authorization matrix. Each cell replaces one of the
// ad-hoc `if role in [...]` checks the endpoints would otherwise repeat.
var rules = map[Kind]map[Action]rolePolicy{
	KindCourse: {
		ActionCreate:  {admin: always, mentor: always},
		ActionRead:    {admin: always, mentor: ownerOrPublic, student: publicOnly},
		ActionList:    {admin: always, mentor: ownerOrPublic, student: publicOnly},
		ActionUpdate:  {admin: always, mentor: owner},
		ActionDelete:  {admin: always},
		ActionApprove: {admin: always},
	},
	KindEnrollment: {
		ActionCreate: {admin: always, student: owner},
		ActionRead:   {admin: always, mentor: owner, student: owner},
		ActionList:   {admin: always, mentor: owner, student: owner},
		ActionUpdate: {admin: always, mentor: owner}, // completion status
		ActionDelete: {admin: always, student: owner}, // unenroll
	},
	KindTask: {
		ActionCreate: {admin: always, mentor: owner}, // owner of the parent course
		ActionRead:   {admin: always, mentor: owner, student: enrolledOnly},
		ActionList:   {admin: always, mentor: owner, student: enrolledOnly},
		ActionUpdate: {admin: always, mentor: owner},
		ActionDelete: {admin: always, mentor: owner},
	},
	KindSubmission: {
		ActionCreate: {admin: always, student: ownerEnrolled},
		ActionRead:   {admin: always, mentor: owner, student: owner},
		ActionList:   {admin: always, mentor: owner, student: owner},
		ActionGrade:  {admin: always, mentor: owner},
		ActionDelete: {admin: always},
	},
	KindAttendance: {
		ActionCreate: {admin: always, mentor: owner, student: ownerEnrolled},
		ActionRead:   {admin: always, mentor: owner, student: owner},
		ActionList:   {admin: always, mentor: owner, student: owner},
		ActionUpdate: {admin: always, mentor: owner, student: owner}, // check-out
		ActionDelete: {admin: always},
	},
	KindMaterial: {
		ActionCreate: {admin: always, mentor: owner}, // owner of the parent course
		ActionRead:   {admin: always, mentor: owner, student: enrolledPublic},
		ActionList:   {admin: always, mentor: owner, student: enrolledPublic},
		ActionUpdate: {admin: always, mentor: owner},
		ActionDelete: {admin: always, mentor: owner},
	},
	KindCertificate: {
		ActionCreate: {admin: always, mentor: owner}, // issuance; completion guarded separately
		ActionRead:   {admin: always, mentor: owner, student: owner},
		ActionList:   {admin: always, mentor: owner, student: owner},
		ActionDelete: {admin: always},
	},
	KindFeeReminder: {
		ActionCreate: {admin: always},
		ActionRead:   {admin: always, student: owner},
		ActionList:   {admin: always, student: owner},
		ActionUpdate: {admin: always}, // paid / overdue markers
		ActionDelete: {admin: always},
	},
	KindMockInterview: {
		ActionCreate:   {admin: always, student: owner},
		ActionRead:     {admin: always, mentor: participant, student: participant},
		ActionList:     {admin: always, mentor: owner, student: owner},
		ActionUpdate:   {admin: always, mentor: participant, student: participant},
		ActionFeedback: {admin: always, mentor: owner},
		ActionDelete:   {admin: always, student: owner}, // cancel
	},
}

// Can evaluates the rule table for (actor, action, resource). It is a pure
// function; denials of reads are hidden so that callers surface "not found"
// instead of acknowledging the resource exists.
func Can(a Actor, action Action, res Resource) Decision {
	byAction, ok := rules[res.Kind]
	if !ok {
		return deny("unknown resource kind")
	}
	pol, ok := byAction[action]
	if !ok {
		return deny(string(action) + " not permitted on " + string(res.Kind))
	}
	if pol.guardFor(a.Role).allows(a, res) {
		return allow()
	}
	reason := string(a.Role) + " may not " + string(action) + " this " + string(res.Kind)
	if action == ActionRead {
		return denyHidden(reason)
	}
	return deny(reason)
}
