// Package policy implements the authorization rules as a pure decision
// function. It performs no I/O: callers load the facts (actor role and block
// state, target ownership and visibility) and the policy only combines them.
package policy

import "github.com/openlearn/lms-service/internal/models"

type Action string

const (
	ActionViewCourse        Action = "course.view"
	ActionViewLesson        Action = "lesson.view"
	ActionCreateCourse      Action = "course.create"
	ActionUpdateCourse      Action = "course.update"
	ActionDeleteCourse      Action = "course.delete"
	ActionApproveCourse     Action = "course.approve"
	ActionEditCurriculum    Action = "curriculum.edit"
	ActionBlockUser         Action = "user.block"
	ActionEnroll            Action = "enrollment.create"
	ActionCompleteLesson    Action = "lesson.complete"
	ActionViewEnrollment    Action = "enrollment.view"
	ActionViewAdminResource Action = "admin.view"
	ActionExportRoster      Action = "course.export_roster"
)

// DenyReason distinguishes why a check failed so handlers can map it to the
// right HTTP status. DenyNotFound is used instead of DenyForbidden whenever
// confirming the target exists would leak information.
type DenyReason string

const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyForbidden       DenyReason = "forbidden"
	DenyNotFound        DenyReason = "not_found"
)

// Actor is the caller identity as established by the auth middleware.
// A zero Actor is an anonymous caller.
type Actor struct {
	ID            uint
	Role          models.UserRole
	IsBlocked     bool
	Authenticated bool
}

func (a Actor) isAdmin() bool {
	return a.Authenticated && a.Role == models.RoleAdmin
}

// CourseTarget carries the course facts the policy evaluates.
type CourseTarget struct {
	InstructorID uint
	IsApproved   bool
	IsDeleted    bool
}

func (t CourseTarget) ownedBy(a Actor) bool {
	return a.Authenticated && a.ID == t.InstructorID
}

// EnrollmentTarget carries the enrollment facts the policy evaluates.
type EnrollmentTarget struct {
	StudentID uint
}

// Decision is the outcome of a policy check, stamped with the action it
// judged so error reporting can name what was attempted.
type Decision struct {
	Allowed bool
	Action  Action
	Reason  DenyReason
}

func allow(action Action) Decision {
	return Decision{Allowed: true, Action: action}
}

func deny(action Action, reason DenyReason) Decision {
	return Decision{Action: action, Reason: reason}
}

// requireActor rejects anonymous and blocked callers. Blocked users keep a
// valid token but lose every permission, including otherwise-public reads.
func requireActor(a Actor, action Action) (Decision, bool) {
	if !a.Authenticated {
		return deny(action, DenyUnauthenticated), false
	}
	if a.IsBlocked {
		return deny(action, DenyForbidden), false
	}
	return allow(action), true
}

// CanViewCourse: approved courses are public, even to anonymous callers.
// Unapproved or soft-deleted courses are visible only to the owning
// instructor and admins; everyone else sees "not found".
func CanViewCourse(a Actor, t CourseTarget) Decision {
	if a.Authenticated && a.IsBlocked {
		return deny(ActionViewCourse, DenyForbidden)
	}
	if t.IsApproved && !t.IsDeleted {
		return allow(ActionViewCourse)
	}
	if a.isAdmin() || (t.ownedBy(a) && !t.IsDeleted) {
		return allow(ActionViewCourse)
	}
	return deny(ActionViewCourse, DenyNotFound)
}

// CanViewLesson: lesson content requires an enrollment in the owning course,
// ownership of it, or the admin role. When the course itself is hidden from
// the caller the denial is masked as not-found.
func CanViewLesson(a Actor, course CourseTarget, enrolled bool) Decision {
	if d, ok := requireActor(a, ActionViewLesson); !ok {
		return d
	}
	if a.isAdmin() || course.ownedBy(a) {
		return allow(ActionViewLesson)
	}
	if !course.IsApproved || course.IsDeleted {
		return deny(ActionViewLesson, DenyNotFound)
	}
	if enrolled {
		return allow(ActionViewLesson)
	}
	return deny(ActionViewLesson, DenyForbidden)
}

// CanCreateCourse: instructors and admins only.
func CanCreateCourse(a Actor) Decision {
	if d, ok := requireActor(a, ActionCreateCourse); !ok {
		return d
	}
	if a.Role == models.RoleInstructor || a.Role == models.RoleAdmin {
		return allow(ActionCreateCourse)
	}
	return deny(ActionCreateCourse, DenyForbidden)
}

// CanMutateCourse covers update, soft delete, curriculum edits, and roster
// export: the owning instructor or an admin. The caller names the action so
// the decision records what was attempted.
func CanMutateCourse(a Actor, t CourseTarget, action Action) Decision {
	if d, ok := requireActor(a, action); !ok {
		return d
	}
	if t.IsDeleted && !a.isAdmin() {
		return deny(action, DenyNotFound)
	}
	if a.isAdmin() || t.ownedBy(a) {
		return allow(action)
	}
	return deny(action, DenyNotFound)
}

// CanApproveCourse: admin only. Approval is the admin-gated visibility
// toggle; instructors never flip it themselves.
func CanApproveCourse(a Actor) Decision {
	if d, ok := requireActor(a, ActionApproveCourse); !ok {
		return d
	}
	if a.isAdmin() {
		return allow(ActionApproveCourse)
	}
	return deny(ActionApproveCourse, DenyForbidden)
}

// CanBlockUser: admin only, and admin accounts themselves are not blockable.
func CanBlockUser(a Actor, targetRole models.UserRole) Decision {
	if d, ok := requireActor(a, ActionBlockUser); !ok {
		return d
	}
	if !a.isAdmin() {
		return deny(ActionBlockUser, DenyForbidden)
	}
	if targetRole == models.RoleAdmin {
		return deny(ActionBlockUser, DenyForbidden)
	}
	return allow(ActionBlockUser)
}

// CanEnroll: students only, and only into approved, live courses. The
// duplicate check is left to the store's unique index.
func CanEnroll(a Actor, t CourseTarget) Decision {
	if d, ok := requireActor(a, ActionEnroll); !ok {
		return d
	}
	if a.Role != models.RoleStudent {
		return deny(ActionEnroll, DenyForbidden)
	}
	if !t.IsApproved || t.IsDeleted {
		return deny(ActionEnroll, DenyNotFound)
	}
	return allow(ActionEnroll)
}

// CanCompleteLesson: only the student owning the enrollment.
func CanCompleteLesson(a Actor, e EnrollmentTarget) Decision {
	if d, ok := requireActor(a, ActionCompleteLesson); !ok {
		return d
	}
	if a.ID == e.StudentID {
		return allow(ActionCompleteLesson)
	}
	return deny(ActionCompleteLesson, DenyNotFound)
}

// CanViewEnrollment: the owning student or an admin.
func CanViewEnrollment(a Actor, e EnrollmentTarget) Decision {
	if d, ok := requireActor(a, ActionViewEnrollment); !ok {
		return d
	}
	if a.isAdmin() || a.ID == e.StudentID {
		return allow(ActionViewEnrollment)
	}
	return deny(ActionViewEnrollment, DenyNotFound)
}

// CanViewAdminResource: admin only.
func CanViewAdminResource(a Actor) Decision {
	if d, ok := requireActor(a, ActionViewAdminResource); !ok {
		return d
	}
	if a.isAdmin() {
		return allow(ActionViewAdminResource)
	}
	return deny(ActionViewAdminResource, DenyForbidden)
}
