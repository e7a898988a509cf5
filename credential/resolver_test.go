package credential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// countingBridge records how often it was consulted
type countingBridge struct {
	key   string
	err   error
	calls int
}

func (b *countingBridge) fn(ctx context.Context) (string, error) {
	b.calls++
	return b.key, b.err
}

// countingRemote is an in-memory RemoteStore with call counters
type countingRemote struct {
	keys        map[string]string
	lookupErr   error
	saveErr     error
	lookupCalls int
	saveCalls   int
}

func (r *countingRemote) Lookup(ctx context.Context, userID string) (string, error) {
	r.lookupCalls++
	if r.lookupErr != nil {
		return "", r.lookupErr
	}
	return r.keys[userID], nil
}

func (r *countingRemote) Save(ctx context.Context, userID, key string) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.keys == nil {
		r.keys = map[string]string{}
	}
	r.keys[userID] = key
	return nil
}

// countingLocal is an in-memory LocalStore with call counters
type countingLocal struct {
	key       string
	loadErr   error
	saveErr   error
	loadCalls int
	saveCalls int
}

func (l *countingLocal) Load() (string, error) {
	l.loadCalls++
	if l.loadErr != nil {
		return "", l.loadErr
	}
	return l.key, nil
}

func (l *countingLocal) Save(key string) error {
	l.saveCalls++
	if l.saveErr != nil {
		return l.saveErr
	}
	l.key = key
	return nil
}

const (
	bridgeKey = "bridge-key-123"
	storedKey = "stored-key-abcdefghijklmnop"
	envKey    = "env-key-456789"
)

func TestResolve_OrderInvariant(t *testing.T) {
	session := Authenticated(Profile{UserID: "u-1"})

	tests := []struct {
		name            string
		bridge          string
		remote          string
		local           string
		env             map[string]string
		wantOrigin      Origin
		wantValue       string
		wantRemoteCalls int
		wantLocalCalls  int
	}{
		{
			name:            "bridge wins, nothing else consulted",
			bridge:          bridgeKey,
			remote:          storedKey,
			local:           storedKey,
			env:             map[string]string{EnvGeminiKey: envKey},
			wantOrigin:      OriginBridge,
			wantValue:       bridgeKey,
			wantRemoteCalls: 0,
			wantLocalCalls:  0,
		},
		{
			name:            "remote wins over local and env",
			remote:          storedKey,
			local:           "other-stored-key-zyxwvuts",
			env:             map[string]string{EnvGeminiKey: envKey},
			wantOrigin:      OriginRemote,
			wantValue:       storedKey,
			wantRemoteCalls: 1,
			wantLocalCalls:  0,
		},
		{
			name:            "local wins over env",
			local:           storedKey,
			env:             map[string]string{EnvGeminiKey: envKey},
			wantOrigin:      OriginLocal,
			wantValue:       storedKey,
			wantRemoteCalls: 1,
			wantLocalCalls:  1,
		},
		{
			name:            "env is last resort",
			env:             map[string]string{EnvGeminiKey: envKey},
			wantOrigin:      OriginEnv,
			wantValue:       envKey,
			wantRemoteCalls: 1,
			wantLocalCalls:  1,
		},
		{
			name:            "GOOGLE_API_KEY honored after GEMINI_API_KEY",
			env:             map[string]string{EnvGoogleKey: envKey},
			wantOrigin:      OriginEnv,
			wantValue:       envKey,
			wantRemoteCalls: 1,
			wantLocalCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := &countingBridge{key: tt.bridge}
			remote := &countingRemote{keys: map[string]string{"u-1": tt.remote}}
			local := &countingLocal{key: tt.local}

			r := &Resolver{
				Bridge: bridge.fn,
				Remote: remote,
				Local:  local,
				Getenv: func(name string) string { return tt.env[name] },
			}

			cred := r.Resolve(context.Background(), session)
			if cred.Origin != tt.wantOrigin {
				t.Errorf("Origin = %v, want %v", cred.Origin, tt.wantOrigin)
			}
			if cred.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", cred.Value, tt.wantValue)
			}
			if cred.Demo {
				t.Error("Demo should be false when a source yields a key")
			}
			if remote.lookupCalls != tt.wantRemoteCalls {
				t.Errorf("remote consulted %d times, want %d", remote.lookupCalls, tt.wantRemoteCalls)
			}
			if local.loadCalls != tt.wantLocalCalls {
				t.Errorf("local consulted %d times, want %d", local.loadCalls, tt.wantLocalCalls)
			}
		})
	}
}

func TestResolve_DemoWhenAllEmpty(t *testing.T) {
	r := &Resolver{
		Bridge: (&countingBridge{}).fn,
		Remote: &countingRemote{},
		Local:  &countingLocal{},
		Getenv: func(string) string { return "" },
	}

	cred := r.Resolve(context.Background(), Anonymous())
	if !cred.Demo {
		t.Fatal("expected demo credential when every source is empty")
	}
	if cred.Origin != OriginNone {
		t.Errorf("Origin = %v, want %v", cred.Origin, OriginNone)
	}
	if cred.Value != "" {
		t.Errorf("Value = %q, want empty", cred.Value)
	}
	if cred.Message == "" {
		t.Error("demo credential should carry an explanatory message")
	}
}

func TestResolve_PlaceholderTreatedAsAbsent(t *testing.T) {
	// The placeholder is longer than both length thresholds, so a pass
	// here proves the exclusion is not just the length check.
	if len(PlaceholderKey) <= 20 {
		t.Fatalf("placeholder %q is too short to prove the exclusion", PlaceholderKey)
	}

	bridge := &countingBridge{key: PlaceholderKey}
	remote := &countingRemote{keys: map[string]string{"u-1": PlaceholderKey}}
	local := &countingLocal{key: PlaceholderKey}

	r := &Resolver{
		Bridge: bridge.fn,
		Remote: remote,
		Local:  local,
		Getenv: func(name string) string { return PlaceholderKey },
	}

	cred := r.Resolve(context.Background(), Authenticated(Profile{UserID: "u-1"}))
	if !cred.Demo {
		t.Error("placeholder values must resolve to demo mode")
	}
	if cred.Origin != OriginNone {
		t.Errorf("Origin = %v, want %v", cred.Origin, OriginNone)
	}
}

func TestResolve_LengthThresholds(t *testing.T) {
	tests := []struct {
		name     string
		local    string
		env      string
		wantDemo bool
		want     Origin
	}{
		{"stored key at 20 chars rejected", strings.Repeat("k", 20), "", true, OriginNone},
		{"stored key at 21 chars accepted", strings.Repeat("k", 21), "", false, OriginLocal},
		{"env key at 10 chars rejected", "", strings.Repeat("e", 10), true, OriginNone},
		{"env key at 11 chars accepted", "", strings.Repeat("e", 11), false, OriginEnv},
		{"short stored key falls through to env", strings.Repeat("k", 12), strings.Repeat("e", 11), false, OriginEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resolver{
				Local:  &countingLocal{key: tt.local},
				Getenv: func(name string) string { return tt.env },
			}
			cred := r.Resolve(context.Background(), Anonymous())
			if cred.Demo != tt.wantDemo {
				t.Errorf("Demo = %v, want %v", cred.Demo, tt.wantDemo)
			}
			if cred.Origin != tt.want {
				t.Errorf("Origin = %v, want %v", cred.Origin, tt.want)
			}
		})
	}
}

func TestResolve_FaultTolerance(t *testing.T) {
	// Every fallible source errors; the chain must still reach env.
	bridge := &countingBridge{err: errors.New("bridge unavailable")}
	remote := &countingRemote{lookupErr: errors.New("server down")}
	local := &countingLocal{loadErr: errors.New("disk on fire")}

	var logged []string
	r := &Resolver{
		Bridge: bridge.fn,
		Remote: remote,
		Local:  local,
		Getenv: func(name string) string {
			if name == EnvGeminiKey {
				return envKey
			}
			return ""
		},
		Logf: func(format string, args ...any) {
			logged = append(logged, format)
		},
	}

	cred := r.Resolve(context.Background(), Authenticated(Profile{UserID: "u-1"}))
	if cred.Origin != OriginEnv {
		t.Errorf("Origin = %v, want %v", cred.Origin, OriginEnv)
	}
	if cred.Value != envKey {
		t.Errorf("Value = %q, want %q", cred.Value, envKey)
	}
	if len(logged) != 3 {
		t.Errorf("logged %d failures, want 3", len(logged))
	}
}

func TestResolve_RemoteSkippedWithoutIdentity(t *testing.T) {
	remote := &countingRemote{keys: map[string]string{"u-1": storedKey}}
	r := &Resolver{
		Remote: remote,
		Getenv: func(string) string { return "" },
	}

	for _, session := range []Session{Anonymous(), Demo()} {
		r.Resolve(context.Background(), session)
	}
	if remote.lookupCalls != 0 {
		t.Errorf("remote consulted %d times for identity-less sessions, want 0", remote.lookupCalls)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	local := &countingLocal{}
	remote := &countingRemote{}
	session := Authenticated(Profile{UserID: "u-1"})

	r := &Resolver{
		Remote: remote,
		Local:  local,
		Getenv: func(string) string { return "" },
	}

	if err := r.Save(context.Background(), session, storedKey); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	cred := r.Resolve(context.Background(), session)
	if cred.Value != storedKey {
		t.Errorf("resolved %q after save, want %q", cred.Value, storedKey)
	}
	if cred.Origin != OriginRemote {
		t.Errorf("Origin = %v, want %v", cred.Origin, OriginRemote)
	}
}

func TestSave_RemoteFailureKeepsLocalCopy(t *testing.T) {
	local := &countingLocal{}
	remote := &countingRemote{saveErr: errors.New("server down"), lookupErr: errors.New("server down")}
	session := Authenticated(Profile{UserID: "u-1"})

	r := &Resolver{
		Remote: remote,
		Local:  local,
		Getenv: func(string) string { return "" },
	}

	if err := r.Save(context.Background(), session, storedKey); err != nil {
		t.Fatalf("Save() must succeed when only the remote write fails: %v", err)
	}
	if remote.saveCalls != 1 {
		t.Errorf("remote save attempted %d times, want 1", remote.saveCalls)
	}

	cred := r.Resolve(context.Background(), session)
	if cred.Value != storedKey {
		t.Errorf("resolved %q, want the locally kept %q", cred.Value, storedKey)
	}
	if cred.Origin != OriginLocal {
		t.Errorf("Origin = %v, want %v", cred.Origin, OriginLocal)
	}
}

func TestSave_LocalFailureIsFatal(t *testing.T) {
	r := &Resolver{
		Local: &countingLocal{saveErr: errors.New("read-only filesystem")},
	}
	if err := r.Save(context.Background(), Anonymous(), storedKey); err == nil {
		t.Error("Save() must fail when the local write fails")
	}
}

func TestHTTPRemoteStore(t *testing.T) {
	keys := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/keys/{user}", func(w http.ResponseWriter, r *http.Request) {
		key, ok := keys[r.PathValue("user")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"key": key})
	})
	mux.HandleFunc("PUT /api/v1/keys/{user}", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keys[r.PathValue("user")] = payload.Key
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := NewHTTPRemoteStore(server.URL)
	if err != nil {
		t.Fatalf("NewHTTPRemoteStore() failed: %v", err)
	}
	ctx := context.Background()

	// Missing key is empty, not an error
	key, err := store.Lookup(ctx, "nobody")
	if err != nil || key != "" {
		t.Errorf("Lookup(missing) = %q, %v; want empty, nil", key, err)
	}

	if err := store.Save(ctx, "u-1", storedKey); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	key, err = store.Lookup(ctx, "u-1")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if key != storedKey {
		t.Errorf("Lookup() = %q, want %q", key, storedKey)
	}
}

func TestNewHTTPRemoteStore_Invalid(t *testing.T) {
	for _, u := range []string{"", "not a url", "ftp://example.com"} {
		if _, err := NewHTTPRemoteStore(u); err == nil {
			t.Errorf("NewHTTPRemoteStore(%q) should fail", u)
		}
	}
}
