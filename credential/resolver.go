package credential

import (
	"context"
	"fmt"
	"os"
)

// DemoMessage explains demo mode to the user
const DemoMessage = "No API key found. Saucy is running in demo mode: edits are simulated locally. Add a key in Settings to enable live AI generation."

// BridgeFunc returns a key injected by a hosting environment, or an
// error when the host provides none
type BridgeFunc func(ctx context.Context) (string, error)

// RemoteStore is per-user key storage, served by the share server
type RemoteStore interface {
	Lookup(ctx context.Context, userID string) (string, error)
	Save(ctx context.Context, userID, key string) error
}

// LocalStore persists a single key on this machine
type LocalStore interface {
	Load() (string, error)
	Save(key string) error
}

// Resolver walks the credential chain in a fixed order: bridge, remote
// store, local store, environment. The first source that yields a usable
// key wins and later sources are not consulted. A failing source never
// aborts the chain; it is skipped.
type Resolver struct {
	// Bridge is optional; nil means no hosting bridge is present
	Bridge BridgeFunc

	// Remote is optional; consulted only for authenticated sessions
	Remote RemoteStore

	// Local is optional; the locally persisted key
	Local LocalStore

	// Getenv defaults to os.Getenv; injectable for tests
	Getenv func(string) string

	// Logf receives skip/failure notes; nil discards them
	Logf func(format string, args ...any)
}

func (r *Resolver) getenv(name string) string {
	if r.Getenv != nil {
		return r.Getenv(name)
	}
	return os.Getenv(name)
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// Resolve walks the chain and returns the winning credential, or a demo
// credential when every source comes up empty.
func (r *Resolver) Resolve(ctx context.Context, session Session) Credential {
	if r.Bridge != nil {
		key, err := r.Bridge(ctx)
		if err != nil {
			r.logf("credential: bridge lookup failed: %v", err)
		} else if usableBridgeKey(key) {
			return Credential{Value: key, Origin: OriginBridge}
		}
	}

	if r.Remote != nil {
		if userID := session.UserID(); userID != "" {
			key, err := r.Remote.Lookup(ctx, userID)
			if err != nil {
				r.logf("credential: remote lookup failed: %v", err)
			} else if usableStoredKey(key) {
				return Credential{Value: key, Origin: OriginRemote}
			}
		}
	}

	if r.Local != nil {
		key, err := r.Local.Load()
		if err != nil {
			r.logf("credential: local store read failed: %v", err)
		} else if usableStoredKey(key) {
			return Credential{Value: key, Origin: OriginLocal}
		}
	}

	for _, name := range []string{EnvGeminiKey, EnvGoogleKey} {
		if key := r.getenv(name); usableBridgeKey(key) {
			return Credential{Value: key, Origin: OriginEnv}
		}
	}

	return Credential{
		Origin:  OriginNone,
		Demo:    true,
		Message: DemoMessage,
	}
}

// Save persists a key. The local write must succeed (it is the durable
// fallback); the remote write is best-effort and a failure is only
// logged.
func (r *Resolver) Save(ctx context.Context, session Session, key string) error {
	if r.Local == nil {
		return fmt.Errorf("no local credential store configured")
	}
	if err := r.Local.Save(key); err != nil {
		return fmt.Errorf("failed to save key locally: %w", err)
	}

	if r.Remote != nil {
		if userID := session.UserID(); userID != "" {
			if err := r.Remote.Save(ctx, userID, key); err != nil {
				r.logf("credential: remote save failed (local copy kept): %v", err)
			}
		}
	}

	return nil
}
