package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionLocalKey is where a verified *Identity is stored in Fiber's context locals.
const SessionLocalKey = "session"

// Identity is carried by a verified access token.
type Identity struct {
	Subject string
	Email   string
}

// SessionClaims are the access token claims issued by the identity provider.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// SessionConfig configures Session.
type SessionConfig struct {
	// Secret is the HS256 key shared with the identity provider. Empty disables verification.
	Secret []byte
	// CookieName is checked when no Authorization header is sent.
	CookieName string
	Logger     *slog.Logger
}

// Session verifies access tokens issued by the external identity provider.
//
// A token is read from "Authorization: Bearer <token>" or, failing that, the session cookie.
// Requests without a token continue anonymously. A present but invalid or expired token
// is rejected with 401. Endpoints decide for themselves whether a session is required.
func Session(cfg SessionConfig) fiber.Handler {
	if len(cfg.Secret) == 0 {
		return Noop()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "sAccessToken"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return cfg.Secret, nil }

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Cookies(cfg.CookieName)
		}
		if raw == "" {
			return c.Next()
		}

		claims := &SessionClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			reason := "invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "expired"
			}
			log.Info("session_rejected", "request_id", RequestIDFrom(c), "reason", reason)
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
		}

		c.Locals(SessionLocalKey, &Identity{Subject: claims.Subject, Email: claims.Email})
		return c.Next()
	}
}

// SessionFrom returns the verified identity, if any.
func SessionFrom(c *fiber.Ctx) (*Identity, bool) {
	s, ok := c.Locals(SessionLocalKey).(*Identity)
	return s, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
