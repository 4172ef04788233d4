// Package config loads taskboard configuration from TASKBOARD_* environment
// variables, applies defaults and validates the result.
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	db, err := storage.Open(ctx, cfg.Storage)
//
// Server, database, list cache, session, OIDC, audit and observability
// settings are grouped into sub-configs. OIDC is enabled only when issuer,
// client ID and redirect URL are all set.
package config
