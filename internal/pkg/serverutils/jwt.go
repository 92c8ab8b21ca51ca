package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a validated credential resolves to. Nothing session- or
// message-level lives here.
type Identity struct {
	UserID   uint
	Username string
}

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken issues a signed bearer token for the given identity.
func GenerateToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  float64(identity.UserID),
		"username": identity.Username,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and extracts the identity. It is used
// identically for HTTP requests and websocket handshakes.
func ParseToken(secret, tokenStr string) (*Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: uint(userID), Username: username}, nil
}

// BearerFromHeader strips the "Bearer " prefix from an Authorization header.
func BearerFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// TokenFromCtx finds the credential for a request: Authorization header
// first, then the "token" query param (browsers cannot set headers on
// websocket handshakes).
func TokenFromCtx(ctx *fiber.Ctx) string {
	if token := BearerFromHeader(ctx.Get("Authorization")); token != "" {
		return token
	}
	return ctx.Query("token")
}

// JwtMiddleware guards HTTP routes. The resolved identity is stored in
// Locals("identity") for controllers.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerFromHeader(ctx.Get("Authorization"))
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		identity, err := ParseToken(secret, tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		ctx.Locals("identity", *identity)
		return ctx.Next()
	}
}

// IdentityFromCtx reads the identity stored by JwtMiddleware.
func IdentityFromCtx(ctx *fiber.Ctx) (Identity, bool) {
	identity, ok := ctx.Locals("identity").(Identity)
	return identity, ok
}
