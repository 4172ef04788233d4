package rbac

import "github.com/platinummonkey/taskboard/pkg/auth"

// ListScope selects which rows a bulk read may return
type ListScope int

const (
	// ScopeNone denies every row. It is the zero value so that an
	// uninitialized filter fails closed.
	ScopeNone ListScope = iota
	// ScopeOwner restricts the read to rows owned by ListFilter.OwnerID
	ScopeOwner
	// ScopeAll places no restriction on the read
	ScopeAll
)

func (s ListScope) String() string {
	switch s {
	case ScopeOwner:
		return "owner"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}

// ListFilter is the scoping predicate for a bulk read. Stores must push it
// down into the query rather than filtering fetched rows.
type ListFilter struct {
	Scope   ListScope
	OwnerID string
}

// BuildListFilter returns the rows user may see in a list
func BuildListFilter(user *auth.User) ListFilter {
	if user == nil {
		return ListFilter{Scope: ScopeNone}
	}

	switch user.Role {
	case auth.RoleAdmin, auth.RoleManager:
		return ListFilter{Scope: ScopeAll}
	case auth.RoleUser:
		if user.ID == "" {
			return ListFilter{Scope: ScopeNone}
		}
		return ListFilter{Scope: ScopeOwner, OwnerID: user.ID}
	default:
		return ListFilter{Scope: ScopeNone}
	}
}

// Unrestricted reports whether the filter admits every row
func (f ListFilter) Unrestricted() bool {
	return f.Scope == ScopeAll
}

// DenyAll reports whether the filter admits no rows. A ScopeOwner filter
// without an owner is treated as deny-all.
func (f ListFilter) DenyAll() bool {
	switch f.Scope {
	case ScopeAll:
		return false
	case ScopeOwner:
		return f.OwnerID == ""
	default:
		return true
	}
}

// Matches reports whether a row with attrs passes the filter
func (f ListFilter) Matches(attrs Attributes) bool {
	switch {
	case f.DenyAll():
		return false
	case f.Unrestricted():
		return true
	default:
		return attrs.OwnerID == f.OwnerID
	}
}

// Key identifies the filter for caching. Deny-all filters have no key.
func (f ListFilter) Key() string {
	switch {
	case f.DenyAll():
		return ""
	case f.Unrestricted():
		return "all"
	default:
		return "owner:" + f.OwnerID
	}
}

func (f ListFilter) String() string {
	if f.Scope == ScopeOwner {
		return "owner=" + f.OwnerID
	}
	return f.Scope.String()
}
