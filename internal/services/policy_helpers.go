package services

import (
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/policy"
)

// toActor converts the authenticated user (or nil for anonymous callers)
// into a policy actor.
func toActor(u *models.User) policy.Actor {
	if u == nil {
		return policy.Actor{}
	}
	return policy.Actor{
		ID:            u.ID,
		Role:          u.Role,
		IsBlocked:     u.IsBlocked,
		Authenticated: true,
	}
}

func courseTarget(c *models.Course) policy.CourseTarget {
	return policy.CourseTarget{
		InstructorID: c.InstructorID,
		IsApproved:   c.IsApproved,
		IsDeleted:    c.DeletedAt.Valid,
	}
}

// denyError converts a policy denial into the corresponding service error.
// The decision carries the action that was judged; notFoundErr is the
// sentinel used to mask the resource's existence.
func denyError(d policy.Decision, actor *models.User, resourceID uint, resource string, notFoundErr error) error {
	switch d.Reason {
	case policy.DenyUnauthenticated:
		return ErrUnauthenticated
	case policy.DenyNotFound:
		return notFoundErr
	default:
		var actorID uint
		reason := "insufficient permissions"
		if actor != nil {
			actorID = actor.ID
			if actor.IsBlocked {
				reason = "account is blocked"
			}
		}
		return NewPermissionError(actorID, resourceID, resource, string(d.Action), reason)
	}
}
