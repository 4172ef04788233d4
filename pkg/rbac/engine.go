package rbac

import "github.com/platinummonkey/taskboard/pkg/auth"

// Decide evaluates whether user may perform action on the resource described
// by res. res may be nil for actions that do not depend on a resource.
//
// Each role has its own flat rule set; no role inherits from another. Any
// role, action or input not explicitly allowed below is denied.
func Decide(user *auth.User, action Action, res *Attributes) Decision {
	if user == nil {
		return deny(ReasonNoIdentity)
	}

	switch user.Role {
	case auth.RoleAdmin:
		return decideAdmin(action)
	case auth.RoleManager:
		return decideManager(action)
	case auth.RoleUser:
		return decideUser(user.ID, action, res)
	default:
		return deny(ReasonUnknownRole)
	}
}

// Admins view and delete any todo regardless of owner or status
func decideAdmin(action Action) Decision {
	switch action {
	case ActionView, ActionDelete:
		return allow()
	default:
		return deny(ReasonRoleDenied)
	}
}

// Managers have read-only access to every todo
func decideManager(action Action) Decision {
	switch action {
	case ActionView:
		return allow()
	default:
		return deny(ReasonRoleDenied)
	}
}

func decideUser(userID string, action Action, res *Attributes) Decision {
	switch action {
	case ActionCreate:
		return allow()
	case ActionView, ActionUpdate, ActionDelete:
	default:
		return deny(ReasonRoleDenied)
	}

	if res == nil {
		return deny(ReasonNoResource)
	}
	// An empty ID never owns anything, even a row with an empty owner.
	if userID == "" || res.OwnerID != userID {
		return deny(ReasonNotOwner)
	}

	if action == ActionDelete && !res.Draft {
		return deny(ReasonNotDraft)
	}
	return allow()
}
