package session

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/playthrough/internal/shared"
)

const (
	StateCookie        = "sp_oauth_state"
	AccessTokenCookie  = "sp_access_token"
	RefreshTokenCookie = "sp_refresh_token"
	ExpiresAtCookie    = "sp_access_expires_at"

	// StateTTL bounds how long a login attempt may take.
	StateTTL = 600 * time.Second
)

// CredentialStore is a named string store with per-entry lifetimes.
//
// A ttl of zero means the entry lives as long as the client session.
type CredentialStore interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Delete(name string)
}

// Credentials is the record the token manager reads and refreshes.
type Credentials struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// Fresh reports whether the access token is present and valid for longer than margin after now.
func (c Credentials) Fresh(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return c.ExpiresAt.After(now.Add(margin))
}

// ReadCredentials loads the credential record from store.
//
// An unparseable expiry is treated as absent, which makes the access token stale.
func ReadCredentials(store CredentialStore) Credentials {
	var creds Credentials
	creds.AccessToken, _ = store.Get(AccessTokenCookie)
	creds.RefreshToken, _ = store.Get(RefreshTokenCookie)
	if raw, ok := store.Get(ExpiresAtCookie); ok {
		creds.ExpiresAt, _ = ParseExpiry(raw)
	}
	return creds
}

// WriteCredentials stores the access token and its expiry together.
// The refresh token is only written when non-empty so an existing one is never cleared.
func WriteCredentials(store CredentialStore, creds Credentials) {
	store.Set(AccessTokenCookie, creds.AccessToken, 0)
	store.Set(ExpiresAtCookie, FormatExpiry(creds.ExpiresAt), 0)
	if creds.RefreshToken != "" {
		store.Set(RefreshTokenCookie, creds.RefreshToken, 0)
	}
}

// FormatExpiry renders t as epoch milliseconds.
func FormatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseExpiry parses an epoch millisecond string.
func ParseExpiry(raw string) (time.Time, bool) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// CheckState fails with [shared.ErrInvalidState] unless code and state are present and state
// equals the stored nonce. An empty stored value means no nonce was found.
func CheckState(code, state, stored string) error {
	switch {
	case code == "":
		return fmt.Errorf("%w: missing code", shared.ErrInvalidState)
	case state == "":
		return fmt.Errorf("%w: missing state", shared.ErrInvalidState)
	case stored == "":
		return fmt.Errorf("%w: no stored nonce", shared.ErrInvalidState)
	case subtle.ConstantTimeCompare([]byte(state), []byte(stored)) != 1:
		return fmt.Errorf("%w: state mismatch", shared.ErrInvalidState)
	}
	return nil
}

// ValidState reports whether [CheckState] accepts the callback.
func ValidState(code, state, stored string) bool {
	return CheckState(code, state, stored) == nil
}

// CookieStore is a [CredentialStore] over the cookies of one request/response pair.
//
// Writes made during the request are visible to later reads on the same store.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	pending map[string]*string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure, pending: map[string]*string{}}
}

func (s *CookieStore) Get(name string) (string, bool) {
	if v, ok := s.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Set(name, value string, ttl time.Duration) {
	c := s.cookie(name, value)
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(s.w, c)
	s.pending[name] = &value
}

func (s *CookieStore) Delete(name string) {
	c := s.cookie(name, "")
	c.MaxAge = -1
	http.SetCookie(s.w, c)
	s.pending[name] = nil
}

func (s *CookieStore) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type memoryEntry struct {
	value    string
	deadline time.Time
}

// MemoryStore is an in-process [CredentialStore] used by the CLI and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	if !e.deadline.IsZero() && !s.now().Before(e.deadline) {
		delete(s.entries, name)
		return "", false
	}
	return e.value, e.value != ""
}

func (s *MemoryStore) Set(name, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.deadline = s.now().Add(ttl)
	}
	s.entries[name] = e
}

func (s *MemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}
