package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shim/internal/config"
	"shim/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Claims are issued by the identity provider; Subject carries the numeric user id.
type Claims struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTAuth verifies HS256 bearer tokens.
type JWTAuth struct {
	secret []byte
	issuer string
}

func NewJWTAuth(cfg config.AuthConfig) *JWTAuth {
	return &JWTAuth{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

var errInvalidToken = errors.New("invalid token")

// Parse validates a token and returns the caller it identifies.
func (a *JWTAuth) Parse(raw string) (models.Caller, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return models.Caller{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Caller{}, errInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.Caller{}, errInvalidToken
	}
	role := models.Role(strings.ToLower(claims.Role))
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.Caller{}, errInvalidToken
	}
	return models.Caller{ID: id, Role: role, Name: claims.Name, Email: claims.Email}, nil
}

// Required rejects requests without a valid bearer token and stores the caller.
func (a *JWTAuth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		caller, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireRole admits only callers holding role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerFrom(c).Role != role {
			abort(c, http.StatusForbidden, "forbidden", "requires the "+string(role)+" role")
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) models.Caller {
	v, _ := c.Get(callerKey)
	caller, _ := v.(models.Caller)
	return caller
}
