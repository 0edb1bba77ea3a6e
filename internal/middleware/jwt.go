package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/prepstack/prepstack-api/internal/utils"
)

// JWTProtected validates HMAC-signed bearer tokens and binds the subject's
// user id to the request. Grading endpoints need the user id for submission
// records and quota accounting, so tokens without one are rejected.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, err := subjectUserID(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "token has no usable subject")
		}
		c.Locals("user_id", userID)

		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// subjectUserID resolves the numeric user id from the claims, accepting the
// claim names issued by the auth service.
func subjectUserID(claims jwt.MapClaims) (uint, error) {
	for _, key := range []string{"sub", "user_id", "id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v >= 0 {
				return uint(v), nil
			}
		case string:
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				return uint(parsed), nil
			}
		}
	}
	return 0, fmt.Errorf("no user id claim")
}
