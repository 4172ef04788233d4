package rbac

import "github.com/platinummonkey/taskboard/pkg/auth"

// Capabilities tells presentation layers which controls to show for a todo.
// It is derived from Decide and is never an enforcement point.
type Capabilities struct {
	View   bool `json:"view"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// CapabilitiesFor computes the per-resource capabilities of user
func CapabilitiesFor(user *auth.User, res Attributes) Capabilities {
	return Capabilities{
		View:   Decide(user, ActionView, &res).Allowed,
		Update: Decide(user, ActionUpdate, &res).Allowed,
		Delete: Decide(user, ActionDelete, &res).Allowed,
	}
}

// CanCreate reports whether user may create todos
func CanCreate(user *auth.User) bool {
	return Decide(user, ActionCreate, nil).Allowed
}
