package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidKey   = errors.New("invalid key")
)

// Claims carried by a Questline credential
type Claims struct {
	jwtlib.RegisteredClaims

	UserID           string   `json:"userId"`
	Email            string   `json:"email,omitempty"`
	Role             string   `json:"role,omitempty"`             // user, member, moderator, admin
	SubscriptionTier string   `json:"subscriptionTier,omitempty"` // free, potion, core_quest, raid, mastermind
	Guilds           []string `json:"guilds,omitempty"`
}

// InGuild reports whether the credential lists guildID among its memberships
func (c *Claims) InGuild(guildID string) bool {
	for _, g := range c.Guilds {
		if g == guildID {
			return true
		}
	}
	return false
}

// Service signs and verifies HS256 credentials with a shared secret
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// Config holds JWT service configuration
type Config struct {
	Secret         string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret is empty", ErrInvalidKey)
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
		now:        time.Now,
	}, nil
}

// Sign creates a signed credential. A zero ExpiresAt is filled from the
// configured expiration; claims that already carry one keep it.
func (s *Service) Sign(claims Claims) (string, error) {
	now := s.now()

	claims.IssuedAt = jwtlib.NewNumericDate(now)
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	if claims.ExpiresAt == nil && s.expiration > 0 {
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(s.expiration))
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signed, nil
}

// Validate verifies a credential and returns its claims.
// Failures are ErrNoToken, ErrTokenExpired or ErrInvalidToken.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(*jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	}, s.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateAccessToken is Validate under the name the auth middleware expects
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.Validate(tokenString)
}

func (s *Service) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}
	return opts
}

// ParseBearer extracts the credential from an Authorization header value.
// A missing header or any scheme other than Bearer yields ErrNoToken.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
