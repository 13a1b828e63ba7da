package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Claims токен клиента или администратора офиса
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Identity проверенный вызывающий
type Identity struct {
	Subject string
	Name    string
	Role    model.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdministrator
}

// Authenticator проверяет HS256 JWT. Без секрета работает в режиме разработки:
// любой запрос считается администратором.
type Authenticator struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthenticator(secret []byte, logger *zap.Logger) *Authenticator {
	if len(secret) == 0 {
		logger.Warn("JWT_SECRET is empty, API runs without authentication")
	}
	return &Authenticator{secret: secret, logger: logger}
}

// IssueToken подписывает токен для subject с ролью role
func IssueToken(secret []byte, subject, name string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(a.secret) == 0 {
				c.Set(identityKey, Identity{Subject: "dev-user", Role: model.RoleAdministrator})
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return a.secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			role, err := model.ParseRole(claims.Role)
			if err != nil || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			c.Set(identityKey, Identity{Subject: claims.Subject, Name: claims.Name, Role: role})
			return next(c)
		}
	}
}

// RequireAdmin пропускает только администраторов
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !identityFrom(c).IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "administrator role required")
			}
			return next(c)
		}
	}
}

func identityFrom(c echo.Context) Identity {
	id, _ := c.Get(identityKey).(Identity)
	return id
}
