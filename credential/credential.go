// Package credential decides which Gemini API key Saucy uses. Keys can
// come from a hosting bridge, the per-user remote store, the local store,
// or the environment; when none of those yields a usable value the app
// runs in demo mode and never calls a provider.
package credential

// PlaceholderKey is the literal value scaffolding and templates ship with
// when no real key was configured. It is treated as absent no matter how
// long it is.
const PlaceholderKey = "PLACEHOLDER_GEMINI_API_KEY"

// Environment variable names consulted by the final chain step
const (
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvGoogleKey = "GOOGLE_API_KEY"
)

// Origin identifies which source produced a credential
type Origin string

const (
	// OriginBridge is a key injected by a hosting environment
	OriginBridge Origin = "bridge"
	// OriginRemote is the per-user remote store
	OriginRemote Origin = "remote-store"
	// OriginLocal is the locally persisted value
	OriginLocal Origin = "local-store"
	// OriginEnv is a build/run-time environment variable
	OriginEnv Origin = "environment"
	// OriginNone means no source yielded a usable key (demo mode)
	OriginNone Origin = "none"
)

// Credential is the outcome of a resolution pass
type Credential struct {
	// Value is the API key; empty in demo mode
	Value string

	// Origin is the source that produced the value
	Origin Origin

	// Demo is true iff no source yielded a usable key
	Demo bool

	// Message explains demo mode to the user
	Message string
}

// SessionKind distinguishes the three ways a user can be present
type SessionKind int

const (
	// SessionAnonymous is a visitor with no identity
	SessionAnonymous SessionKind = iota
	// SessionAuthenticated is a signed-in user with a profile
	SessionAuthenticated
	// SessionDemo is an explicit try-it-out session
	SessionDemo
)

// Profile carries the identity of an authenticated user
type Profile struct {
	UserID      string
	DisplayName string
}

// Session is an explicit tagged variant passed into the resolver. There
// is no ambient current-user state and no fabricated provider-shaped
// user object: a demo session is just a demo session.
type Session struct {
	Kind    SessionKind
	Profile *Profile
}

// Authenticated builds a session for a signed-in user
func Authenticated(p Profile) Session {
	return Session{Kind: SessionAuthenticated, Profile: &p}
}

// Demo builds an explicit demo session
func Demo() Session {
	return Session{Kind: SessionDemo}
}

// Anonymous builds a session with no identity
func Anonymous() Session {
	return Session{Kind: SessionAnonymous}
}

// UserID returns the signed-in user's id, or "" for demo/anonymous
func (s Session) UserID() string {
	if s.Kind == SessionAuthenticated && s.Profile != nil {
		return s.Profile.UserID
	}
	return ""
}

// usableBridgeKey applies the acceptance rule for bridge/env sources.
// The placeholder is excluded before the length check so a long
// placeholder can never pass as a key.
func usableBridgeKey(v string) bool {
	return v != "" && v != PlaceholderKey && len(v) > 10
}

// usableStoredKey applies the stricter acceptance rule for stored keys
func usableStoredKey(v string) bool {
	return v != "" && v != PlaceholderKey && len(v) > 20
}
