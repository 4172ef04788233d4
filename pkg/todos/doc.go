// Package todos holds the todo data model, its SQL store and the service
// operations List, Get, Create, Update and Delete.
//
// Every operation resolves the caller through an auth.IdentityResolver and
// consults the rbac permission engine before touching the store. List pushes
// the rbac.ListFilter down into the query. Update and Delete decide on a
// fetched snapshot and write conditionally on that snapshot's version, so a
// concurrent change surfaces as ErrConflict or ErrNotFound instead of being
// overwritten.
//
//	svc := todos.NewService(todos.NewSQLStore(db, metrics), auth.ContextResolver{}, cache, metrics)
//	todo, err := svc.Create(ctx, todos.CreateInput{Title: "Buy milk"})
package todos
