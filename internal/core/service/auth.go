package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/crypto/argon2"
	"golang.org/x/time/rate"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

// Argon2id parameters for requirepass hashes.
const (
	Argon2Time        = 2
	Argon2Memory      = 16384 // KiB
	Argon2Parallelism = 2
	Argon2KeyLen      = 32
	Argon2SaltLen     = 16
)

// AuthService verifies AUTH passwords.
type AuthService struct {
	hash string
}

// NewAuthService creates an AuthService for the given argon2id hash. An
// empty hash disables authentication.
func NewAuthService(passwordHash string) (*AuthService, error) {
	if passwordHash != "" {
		if _, _, err := parseArgon2Hash(passwordHash); err != nil {
			return nil, err
		}
	}
	return &AuthService{hash: passwordHash}, nil
}

// Required reports whether clients must authenticate.
func (s *AuthService) Required() bool {
	return s != nil && s.hash != ""
}

// Verify checks password against the configured hash.
func (s *AuthService) Verify(password []byte) error {
	if !s.Required() {
		return domain.ErrAuthNotConfigured
	}
	if !verifyArgon2Hash(password, s.hash) {
		return domain.ErrInvalidPassword
	}
	return nil
}

// HashPassword computes an Argon2id hash of password.
// Returns the hash in the format: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

func parseArgon2Hash(hash string) (salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, fmt.Errorf("password hash is not in argon2id format")
	}
	want := fmt.Sprintf("m=%d,t=%d,p=%d", Argon2Memory, Argon2Time, Argon2Parallelism)
	if parts[3] != want {
		return nil, nil, fmt.Errorf("password hash parameters %q, want %q", parts[3], want)
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("password hash is empty")
	}
	return salt, key, nil
}

func verifyArgon2Hash(password []byte, hash string) bool {
	salt, expected, err := parseArgon2Hash(hash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey(password, salt, Argon2Time, Argon2Memory, Argon2Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// ============================================================================
// RateLimiterRegistry
// ============================================================================

// RateLimiterRegistry holds one token bucket per client. A zero rate
// disables limiting.
type RateLimiterRegistry struct {
	limit    rate.Limit
	burst    int
	limiters *xsync.MapOf[string, *rate.Limiter]
}

// NewRateLimiterRegistry creates a registry allowing perSecond commands per
// client with the given burst.
func NewRateLimiterRegistry(perSecond float64, burst int) *RateLimiterRegistry {
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiterRegistry{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: xsync.NewMapOf[string, *rate.Limiter](),
	}
}

// Allow reports whether client may run one more command now.
func (r *RateLimiterRegistry) Allow(client string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	limiter, _ := r.limiters.LoadOrCompute(client, func() *rate.Limiter {
		return rate.NewLimiter(r.limit, r.burst)
	})
	return limiter.Allow()
}

// Delete drops the limiter of a client.
func (r *RateLimiterRegistry) Delete(client string) {
	if r == nil {
		return
	}
	r.limiters.Delete(client)
}

// Size returns the number of tracked clients.
func (r *RateLimiterRegistry) Size() int {
	if r == nil {
		return 0
	}
	return r.limiters.Size()
}
