package rbac

// Action represents an operation a user attempts on a todo
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists every recognized action
func Actions() []Action {
	return []Action{ActionCreate, ActionView, ActionUpdate, ActionDelete}
}

// Attributes are the resource attributes a decision may depend on
type Attributes struct {
	OwnerID string
	Draft   bool
}

// Reason explains a decision. Reasons are for logs and metrics only and are
// never returned to callers.
type Reason string

const (
	ReasonAllowed     Reason = "allowed"
	ReasonRoleDenied  Reason = "role_denied"
	ReasonUnknownRole Reason = "unknown_role"
	ReasonNoResource  Reason = "no_resource"
	ReasonNotOwner    Reason = "not_owner"
	ReasonNotDraft    Reason = "not_draft"
	ReasonNoIdentity  Reason = "no_identity"
)

// Decision is the result of evaluating an action
type Decision struct {
	Allowed bool
	Reason  Reason
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny(" + string(d.Reason) + ")"
}

func allow() Decision {
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
