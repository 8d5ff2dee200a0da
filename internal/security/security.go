// Package security holds the API keys accepted by the planning service.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
)

// Scopes granted to API keys.
const (
	ScopeRead  = "plans:read"
	ScopeWrite = "plans:write"
	ScopeAll   = "*"
)

const (
	APIKeyHeader = "X-API-Key"
	keyPrefix    = "sp_"
)

// APIKey is an accepted key. The key itself is only kept as a hash.
type APIKey struct {
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Enabled   bool       `json:"enabled"`
}

// IsValid reports whether the key is enabled and not expired at now.
func (k *APIKey) IsValid(now time.Time) bool {
	if !k.Enabled {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
		return false
	}
	return true
}

// HasScope reports whether the key grants scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == ScopeAll {
			return true
		}
	}
	return false
}

// APIKeyManager validates API keys.
type APIKeyManager struct {
	keys map[string]*APIKey // sha256(key) -> APIKey
	now  func() time.Time
	mu   sync.RWMutex
}

// NewAPIKeyManager creates an empty manager.
func NewAPIKeyManager() *APIKeyManager {
	return &APIKeyManager{
		keys: make(map[string]*APIKey),
		now:  time.Now,
	}
}

// ParseKeys builds a manager from "name:key[:scope|scope]" entries
// separated by commas. Entries without scopes get read and write.
func ParseKeys(list string) (*APIKeyManager, error) {
	m := NewAPIKeyManager()
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, apperrors.InvalidInput("api_keys", fmt.Sprintf("entry %q must be name:key[:scopes]", parts[0]))
		}
		scopes := []string{ScopeRead, ScopeWrite}
		if len(parts) == 3 && parts[2] != "" {
			scopes = strings.Split(parts[2], "|")
		}
		m.Add(parts[1], parts[0], scopes)
	}
	return m, nil
}

// Len returns the number of known keys.
func (m *APIKeyManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Add registers key under name.
func (m *APIKeyManager) Add(key, name string, scopes []string) *APIKey {
	apiKey := &APIKey{
		Name:      name,
		Scopes:    scopes,
		CreatedAt: m.now(),
		Enabled:   true,
	}
	m.mu.Lock()
	m.keys[hashKey(key)] = apiKey
	m.mu.Unlock()
	return apiKey
}

// GenerateKey creates a random key. The plain key is returned once.
func (m *APIKeyManager) GenerateKey(name string, scopes []string, expiresIn *time.Duration) (string, *APIKey, error) {
	raw, err := randomHex(24)
	if err != nil {
		return "", nil, err
	}
	key := keyPrefix + raw
	apiKey := m.Add(key, name, scopes)
	if expiresIn != nil {
		expiresAt := apiKey.CreatedAt.Add(*expiresIn)
		apiKey.ExpiresAt = &expiresAt
	}
	return key, apiKey, nil
}

// Validate returns the key record, or an UNAUTHORIZED error.
func (m *APIKeyManager) Validate(key string) (*APIKey, error) {
	if key == "" {
		return nil, apperrors.Unauthorized("missing API key")
	}
	m.mu.RLock()
	apiKey, ok := m.keys[hashKey(key)]
	m.mu.RUnlock()

	if !ok {
		return nil, apperrors.Unauthorized("invalid API key")
	}
	if !apiKey.IsValid(m.now()) {
		return nil, apperrors.Unauthorized("API key expired or revoked")
	}
	return apiKey, nil
}

// Revoke disables key.
func (m *APIKeyManager) Revoke(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if apiKey, ok := m.keys[hashKey(key)]; ok {
		apiKey.Enabled = false
	}
}

// ExtractAPIKey reads the key from the X-API-Key header or a bearer token.
func ExtractAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
