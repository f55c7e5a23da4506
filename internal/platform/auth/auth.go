// Package auth implements the shared-access-code gate. Presenting the
// doctor or patient code yields a short-lived HS256 session token carrying
// the role; there is no per-user identity by design.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"

	roleContextKey = "session_role"
)

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Gate issues and validates session tokens against the two static codes.
type Gate struct {
	doctorCode  string
	patientCode string
	signingKey  []byte
	ttl         time.Duration
}

func NewGate(doctorCode, patientCode string, signingKey []byte, ttl time.Duration) *Gate {
	return &Gate{
		doctorCode:  doctorCode,
		patientCode: patientCode,
		signingKey:  signingKey,
		ttl:         ttl,
	}
}

// ResolveRole maps an access code to its role, or "" for an unknown code.
func (g *Gate) ResolveRole(code string) string {
	switch code {
	case g.doctorCode:
		return RoleDoctor
	case g.patientCode:
		return RolePatient
	default:
		return ""
	}
}

// IssueToken creates a session token for a resolved role.
func (g *Gate) IssueToken(role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "homecare-server",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.signingKey)
}

// ParseToken validates a token and returns its role claim.
func (g *Gate) ParseToken(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || (claims.Role != RoleDoctor && claims.Role != RolePatient) {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Role, nil
}

// SessionHandler is the POST handler exchanging an access code for a token.
func (g *Gate) SessionHandler(c echo.Context) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	role := g.ResolveRole(body.Code)
	if role == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown access code")
	}
	token, err := g.IssueToken(role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue session")
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "role": role})
}

// Middleware validates the bearer token and stores the role in context.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			role, err := g.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}
			c.Set(roleContextKey, role)
			return next(c)
		}
	}
}

// RequireRole guards a route group to the listed roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			current := RoleFromContext(c)
			for _, r := range roles {
				if current == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// RoleFromContext returns the session role stored by Middleware.
func RoleFromContext(c echo.Context) string {
	role, _ := c.Get(roleContextKey).(string)
	return role
}
