// Package rbac decides what each user may do with a todo.
//
// # Overview
//
// Access control combines the user's role with two resource attributes: the
// owner and whether the todo is still a draft. The package is pure; nothing
// here touches a store, the network or a clock, so every function can be
// called from tests directly.
//
// # Decision table
//
// Each role is a flat rule set. There is no inheritance: an admin is not a
// manager with extra rights.
//
//	role     create  view        update      delete
//	user     allow   own only    own only    own drafts only
//	manager  deny    any         deny        deny
//	admin    deny    any         deny        any
//
// Anything not listed is denied, including unknown roles and unknown actions.
//
//	d := rbac.Decide(user, rbac.ActionDelete, &rbac.Attributes{OwnerID: t.OwnerID, Draft: true})
//	if !d.Allowed {
//		log.Warn("denied", "reason", d.Reason)
//	}
//
// # List filters
//
// BuildListFilter turns a user into the predicate a bulk read must apply:
// unrestricted for managers and admins, owner-scoped for users, and deny-all
// for anything else. The zero ListFilter is deny-all. A row passes a user's
// filter exactly when Decide allows that user to view it.
//
// # Capabilities
//
// CapabilitiesFor and CanCreate derive UI hints from the same rules. They
// decide which controls are shown; the todo service decides again on every
// request.
package rbac
