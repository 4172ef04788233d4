// Package ui serves the server-rendered HTML pages built with gomponents.
//
// Pages show a control only when rbac.CapabilitiesFor allows it for the
// viewer: the create form for users, the status form on todos the viewer
// may update and the delete button on todos it may delete. Hiding a control
// is never the enforcement; form posts go through the todo service like API
// calls do. State-changing forms carry a double-submit CSRF token.
package ui
