package middleware

import (
	"fmt"
	"os"
	"strings"

	"tour-booking/constants"
	"tour-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequirePermissions creates a middleware requiring all the given permissions
func RequirePermissions(permissions ...string) fiber.Handler {
	return IsAuthenticated(permissions)
}

// RequireAnyPermission allows access with any valid token
func RequireAnyPermission() fiber.Handler {
	return IsAuthenticated([]string{constants.PermAny})
}

// IsAuthenticated verifies the bearer token and checks the claim permissions.
// Claims are stored in c.Locals("user"), the permission set in
// c.Locals("permissions").
func IsAuthenticated(required []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := verifyRequestToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Unauthorized: " + err.Error(),
				Data:    nil,
			})
		}

		permissionSet := extractUserPermissionsFromClaims(claims)
		for _, perm := range required {
			if perm == constants.PermAny {
				continue
			}
			if !permissionSet[perm] {
				return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
					Status:  fiber.StatusForbidden,
					Message: "Forbidden: missing permission " + perm,
					Data:    nil,
				})
			}
		}

		c.Locals("user", map[string]interface{}(claims))
		c.Locals("permissions", permissionSet)
		return c.Next()
	}
}

func verifyRequestToken(c *fiber.Ctx) (jwt.MapClaims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header missing")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid token format")
	}

	token, err := jwt.Parse(tokenParts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("APP_SECRET")), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}

func extractUserPermissionsFromClaims(claims jwt.MapClaims) map[string]bool {
	permissionSet := make(map[string]bool)

	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return permissionSet
	}

	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	return permissionSet
}
