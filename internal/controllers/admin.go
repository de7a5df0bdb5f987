package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-journal/internal/auth"
	"estate-journal/internal/errs"
	"estate-journal/internal/middleware"
)

// AdminController serves the back office routes. Every route sits behind
// middleware.RequireAdmin.
type AdminController struct {
	svc *auth.Service
	log *slog.Logger
}

func NewAdminController(svc *auth.Service, log *slog.Logger) *AdminController {
	return &AdminController{svc: svc, log: log}
}

func (a *AdminController) Check(c *gin.Context) {
	role, _ := middleware.CurrentRole(c)
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"email": user.Email, "role": role})
}

func (a *AdminController) ListWhitelist(c *gin.Context) {
	entries, err := a.svc.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type grantPayload struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
}

func (a *AdminController) Grant(c *gin.Context) {
	var p grantPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, a.log, errs.ErrUnauthorized)
		return
	}
	entry, err := a.svc.GrantAdmin(c.Request.Context(), user, p.Email, p.FullName)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func (a *AdminController) Revoke(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, a.log, errs.ErrUnauthorized)
		return
	}
	if err := a.svc.RevokeAdmin(c.Request.Context(), user, c.Param("email")); err != nil {
		respondError(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
