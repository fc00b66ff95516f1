package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleJudge = "judge"

	identityKey = "identity"
)

// Identity is the authenticated caller. It is placed in the gin context by
// the auth middleware and handed explicitly to services.
type Identity struct {
	Subject       string
	Role          string
	ResetRequired bool
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// JudgeID parses Subject as a judge id.
func (i Identity) JudgeID() (uuid.UUID, error) {
	if i.Role != RoleJudge {
		return uuid.Nil, fmt.Errorf("identity %q is not a judge", i.Subject)
	}
	return uuid.Parse(i.Subject)
}

type Claims struct {
	Role          string `json:"role"`
	ResetRequired bool   `json:"reset_required,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the given identity.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		Role:          id.Role,
		ResetRequired: id.ResetRequired,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	return Identity{Subject: claims.Subject, Role: claims.Role, ResetRequired: claims.ResetRequired}, nil
}

// AuthMiddleware accepts a bearer token whose role is one of roles. Judges
// that still carry a temporary password may only reach passwordPath.
func AuthMiddleware(secret, passwordPath string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		id, err := ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		allowed := false
		for _, role := range roles {
			if id.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		if id.ResetRequired && c.Request.URL.Path != passwordPath {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Password reset required",
				"code":  "PASSWORD_RESET_REQUIRED",
			})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// SetIdentity is used by tests and internal callers that bypass the token.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}
