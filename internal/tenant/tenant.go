package tenant

import "errors"

// ErrUnknownKey is returned when an API key does not map to any tenant
var ErrUnknownKey = errors.New("unknown api key")

// Resolver maps an API credential to a tenant id. The dispatcher and HTTP
// boundary depend on this interface rather than on any particular key scheme.
type Resolver interface {
	Resolve(apiKey string) (string, error)
}

// Config holds the key-to-tenant mapping
type Config struct {
	APIKeys       map[string]string // api key -> tenant id
	DefaultTenant string            // used when no keys are configured (dev mode)
}

// KeyResolver resolves tenants from a static API-key map. With an empty map
// and a default tenant set, every key resolves to the default (local
// development mode).
type KeyResolver struct {
	keys          map[string]string
	defaultTenant string
}

// NewKeyResolver creates a resolver from configuration
func NewKeyResolver(cfg *Config) *KeyResolver {
	return &KeyResolver{
		keys:          cfg.APIKeys,
		defaultTenant: cfg.DefaultTenant,
	}
}

func (r *KeyResolver) Resolve(apiKey string) (string, error) {
	if len(r.keys) == 0 {
		if r.defaultTenant != "" {
			return r.defaultTenant, nil
		}
		return "", ErrUnknownKey
	}

	tenantID, ok := r.keys[apiKey]
	if !ok {
		return "", ErrUnknownKey
	}
	return tenantID, nil
}
