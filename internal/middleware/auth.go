package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"reviewledger/internal/service"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextActorKey is the gin context key holding the token subject.
const ContextActorKey = "actor"

var errMissingSubject = errors.New("token has no subject")

// IssueToken signs an HS256 token for subject, valid for ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its subject.
func ParseToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// tokenFromRequest tries the access_token cookie first, then the Authorization header.
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireToken guards a route group with a bearer token. With an empty secret
// the guard is disabled and every request runs as the system actor.
func RequireToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		subject, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		c.Set(ContextActorKey, subject)
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), subject))
		c.Next()
	}
}
