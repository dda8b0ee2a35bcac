package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"shams/config"
	"shams/models"
	"shams/repository"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// GenerateJWT signs a token of the given type for the user.
func GenerateJWT(cfg *config.Config, user *models.User, tokenType string) (string, error) {
	ttl := cfg.JWTAccessTTL
	if tokenType == TokenTypeRefresh {
		ttl = cfg.JWTRefreshTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"type":     tokenType,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTKey))
}

// GenerateTokenPair returns an access and a refresh token.
func GenerateTokenPair(cfg *config.Config, user *models.User) (access, refresh string, err error) {
	if access, err = GenerateJWT(cfg, user, TokenTypeAccess); err != nil {
		return "", "", err
	}
	if refresh, err = GenerateJWT(cfg, user, TokenTypeRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseJWT validates the signature, expiry and type and returns the user id.
func ParseJWT(cfg *config.Config, tokenString, tokenType string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return 0, errors.New("invalid token payload")
	}
	if t, _ := claims["type"].(string); t != tokenType {
		return 0, errors.New("wrong token type")
	}
	userID, ok := claims["userId"].(float64) // numeric claims decode as float64
	if !ok || userID <= 0 {
		return 0, errors.New("invalid token payload")
	}
	return uint(userID), nil
}

// Auth resolves bearer tokens to users.
type Auth struct {
	cfg   *config.Config
	users repository.UserRepo
}

func NewAuth(cfg *config.Config, users repository.UserRepo) *Auth {
	return &Auth{cfg: cfg, users: users}
}

// JWTMiddleware rejects requests without a valid access token.
func (a *Auth) JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}
		if msg := a.authenticate(c); msg != "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
		}
		return c.Next()
	}
}

// OptionalJWT lets anonymous requests through but still rejects a bad token.
func (a *Auth) OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		if msg := a.authenticate(c); msg != "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
		}
		return c.Next()
	}
}

func (a *Auth) authenticate(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "Invalid Authorization header format"
	}
	userID, err := ParseJWT(a.cfg, strings.TrimSpace(authHeader[len("Bearer "):]), TokenTypeAccess)
	if err != nil {
		return "Invalid or expired token"
	}
	user, err := a.users.GetByID(c.UserContext(), nil, userID)
	if err != nil || user == nil {
		return "User not found"
	}
	c.Locals("userId", user.ID)
	c.Locals("isStaff", user.IsStaff)
	return ""
}

// UserID returns 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userId").(uint)
	return id
}

func IsStaff(c *fiber.Ctx) bool {
	staff, _ := c.Locals("isStaff").(bool)
	return staff
}
