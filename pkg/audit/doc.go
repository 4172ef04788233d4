// Package audit records security-relevant events: denied todo operations,
// todo mutations and administrative role changes.
//
// Events are written synchronously by the caller. Denial events carry the
// internal reason (not_owner, not_draft, role_denied, not_found) that the API
// deliberately hides, so the trail can tell a probe for a missing todo from a
// refused one.
//
//	logger, _ := audit.NewDBLogger(db)
//	todoService.SetAuditLogger(logger)
//
//	events, err := logger.Search(ctx, audit.SearchFilter{
//		Status: audit.EventStatusDenied,
//		Limit:  50,
//	})
//
// Prune removes events older than the retention window and is run from the
// server's cron schedule.
package audit
