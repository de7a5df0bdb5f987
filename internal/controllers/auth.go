package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-journal/internal/auth"
	"estate-journal/internal/errs"
	"estate-journal/internal/middleware"
)

type AuthController struct {
	svc *auth.Service
	log *slog.Logger
}

func NewAuthController(svc *auth.Service, log *slog.Logger) *AuthController {
	return &AuthController{svc: svc, log: log}
}

type signupPayload struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (a *AuthController) SignUp(c *gin.Context) {
	var p signupPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	res, err := a.svc.Signup(c.Request.Context(), auth.SignupInput{
		Email:     p.Email,
		Password:  p.Password,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	body := gin.H{"user": res.User.Summary(), "code_sent": res.CodeSent()}
	if !res.CodeSent() {
		// the account exists; only the code needs another request
		body["retryable"] = true
	}
	c.JSON(http.StatusCreated, body)
}

type loginPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthController) Login(c *gin.Context) {
	var p loginPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	res, err := a.svc.Login(c.Request.Context(), p.Email, p.Password)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": res.Token,
		"token_type":   "Bearer",
		"expires_in":   res.ExpiresIn,
		"user":         res.User,
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		a.fail(c, errs.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Exists is unauthenticated and not rate limited, so it discloses whether an
// address is registered.
func (a *AuthController) Exists(c *gin.Context) {
	exists, err := a.svc.Exists(c.Request.Context(), c.Query("email"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

type sendCodePayload struct {
	Email string `json:"email" binding:"required,email"`
}

func (a *AuthController) SendCode(c *gin.Context) {
	var p sendCodePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	if err := a.svc.RequestCode(c.Request.Context(), p.Email); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

type confirmCodePayload struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric"`
}

func (a *AuthController) ConfirmCode(c *gin.Context) {
	var p confirmCodePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	if err := a.svc.ConfirmCode(c.Request.Context(), p.Email, p.Code); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

func (a *AuthController) fail(c *gin.Context, err error) {
	respondError(c, a.log, err)
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := errs.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "kind", errs.Kind(err), "error", err)
	}
	c.JSON(status, middleware.ErrorBody(err))
}

func badRequest(c *gin.Context, err error) {
	var msg string
	if errors.Is(err, errs.ErrInvalid) {
		msg = err.Error()
	} else {
		msg = "invalid request: " + err.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
