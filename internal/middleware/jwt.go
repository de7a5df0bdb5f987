package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-journal/internal/access"
	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

const (
	userKey = "auth.user"
	roleKey = "auth.role"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

type AdminChecker interface {
	RequireAdmin(ctx context.Context, user models.User) (access.Role, error)
}

// JWTMiddleware resolves the bearer token to a user and stores it on the
// context. Every failure answers 401 with the same body.
func JWTMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, errs.ErrUnauthorized)
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin must run after JWTMiddleware. The whitelist is consulted on
// every request.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, errs.ErrUnauthorized)
			return
		}
		role, err := checker.RequireAdmin(c.Request.Context(), user)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func CurrentRole(c *gin.Context) (access.Role, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	r, ok := v.(access.Role)
	return r, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errs.Status(err), ErrorBody(err))
}

// ErrorBody is the JSON body of every failed request. Store failures carry
// "retryable": true.
func ErrorBody(err error) gin.H {
	body := gin.H{"error": errs.Public(err)}
	if errs.Retryable(err) {
		body["retryable"] = true
	}
	return body
}
