// Package auth is the identity provider for taskboard: accounts, roles,
// password login, server-side sessions and OpenID Connect sign-in.
//
// # Overview
//
// Every account carries exactly one Role (user, manager or admin). The role
// is stored on the user row and read again each time a session token is
// resolved, so role changes made through the administrative CLI apply to
// existing sessions on their next request. Self-service registration always
// creates RoleUser accounts; no request path can choose or change a role.
//
// # Sessions
//
// Session tokens have the form tb_<base64url(32 random bytes)>. Only the
// SHA-256 hash of a token is persisted:
//
//	svc := auth.NewService(auth.NewStore(db), 24*time.Hour)
//	session, token, user, err := svc.Login(ctx, email, password)
//	// token is returned once; session.TokenHash is what the database holds
//
//	user, err = svc.ResolveToken(ctx, token)
//
// Expired sessions are rejected by ResolveToken and removed periodically by
// CleanupExpiredSessions.
//
// # Request identity
//
// Operations never read identity from global state. The HTTP middleware
// resolves the token and stores the user with WithUser; domain services ask
// an IdentityResolver for it:
//
//	user, err := auth.ContextResolver{}.ResolveCurrentUser(ctx)
//	if errors.Is(err, auth.ErrUnauthenticated) {
//		// no identity on this request
//	}
//
// # OpenID Connect
//
// OIDCProvider performs the authorization-code flow against an external
// issuer. A verified email claim is mapped onto a local account with
// FindOrProvision; newly provisioned accounts get RoleUser and no local
// password. Claims from the issuer never set the local role.
package auth
