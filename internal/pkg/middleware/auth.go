package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// contextUserIDKey is the echo.Context key the auth middleware sets after
// extracting the caller's identity.
const contextUserIDKey = "user_id"

// Claims represents the JWT claims issued for an authenticated caller.
// Token issuance itself is out of scope (spec §1); this is the verifier
// side only.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Auth extracts the caller's user id from the Authorization header and
// sets it on the echo context. In production it verifies an HS256 JWT; in
// development, when TestAuth.Enabled is set, the bearer token is instead
// checked as a `<secret>:<user_id>` pair against a configured bcrypt hash,
// mirroring the teacher's apikey.go dev-convenience pattern but without
// accepting an arbitrary string as an identity.
func Auth(jwtCfg models.JWTConfig, testAuth models.TestAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header is required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}
			token := parts[1]

			if testAuth.Enabled {
				userID, err := resolveTestAuthToken(token, testAuth)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid test-auth token")
				}
				c.Set(contextUserIDKey, userID)
				return next(c)
			}

			claims, err := ValidateToken(token, jwtCfg)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(contextUserIDKey, claims.UserID)
			return next(c)
		}
	}
}

// resolveTestAuthToken checks a `<secret>:<user_id>` bearer token against
// TestAuthConfig.SharedSecretHash and returns the embedded user id.
// Bcrypt, not a plain string-equal, guards the comparison so the shared
// secret is never compared in a way that leaks it through timing, the same
// property the teacher's own credential check
// (services/user/services/user_service.go) relies on for login passwords.
func resolveTestAuthToken(token string, testAuth models.TestAuthConfig) (string, error) {
	secret, userID, ok := strings.Cut(token, ":")
	if !ok || userID == "" {
		return "", errors.New("test-auth token must be '<secret>:<user_id>'")
	}
	if testAuth.SharedSecretHash == "" {
		return "", errors.New("test-auth is enabled but no shared secret is configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(testAuth.SharedSecretHash), []byte(secret)); err != nil {
		return "", errors.New("test-auth shared secret mismatch")
	}
	return userID, nil
}

// HashTestAuthSecret bcrypt-hashes a shared secret for storage in
// TEST_AUTH_SECRET_HASH. Dev tooling only, never called from a request path.
func HashTestAuthSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash test-auth secret: %w", err)
	}
	return string(hash), nil
}

// CallerID reads the user id set by Auth.
func CallerID(c echo.Context) string {
	if v, ok := c.Get(contextUserIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateToken issues a signed HS256 JWT for userID. Used only by dev
// tooling/tests; production issuance is an external collaborator (spec §1).
func GenerateToken(userID string, config models.JWTConfig) (string, error) {
	expiration := time.Now().Add(time.Duration(config.Expiration) * time.Minute)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    config.Issuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns its claims.
func ValidateToken(tokenString string, config models.JWTConfig) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
