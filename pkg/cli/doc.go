// Package cli provides the taskboard command-line interface.
//
// # Commands
//
// serve: run the JSON API and HTML UI on TASKBOARD_PORT and the health and
// metrics endpoints on TASKBOARD_HEALTH_PORT. Pending migrations are applied
// on startup. SIGINT and SIGTERM drain both servers.
//
//	taskboard serve
//
// migrate: apply pending schema migrations, or list their state
//
//	taskboard migrate
//	taskboard migrate --status
//
// users seed: create or update accounts from a YAML file. Existing accounts
// keep their id; password and role are replaced.
//
//	taskboard users seed --file users.yaml
//
//	- email: admin@example.com
//	  name: Admin
//	  password: change-me-now
//	  role: admin
//
// users set-role: change the role of an existing account. This is the only
// way to grant manager or admin; no HTTP route can change a role.
//
//	taskboard users set-role alice@example.com manager
//
// audit: print audit events as newline-delimited JSON, newest first
//
//	taskboard audit --status denied --since 24h
//	taskboard audit --type admin.role_change --limit 20
//
// # Configuration
//
// Every command reads TASKBOARD_* environment variables; see pkg/config.
package cli
