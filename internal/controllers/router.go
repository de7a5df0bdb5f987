package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estate-journal/internal/auth"
	"estate-journal/internal/metrics"
	"estate-journal/internal/middleware"
)

func NewRouter(svc *auth.Service, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware())

	authCtl := NewAuthController(svc, log)
	adminCtl := NewAdminController(svc, log)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/signup", authCtl.SignUp)
		api.POST("/login", authCtl.Login)
		api.GET("/users/exists", authCtl.Exists)
		api.POST("/verification/send", authCtl.SendCode)
		api.POST("/verification/confirm", authCtl.ConfirmCode)
	}

	protected := r.Group("/api")
	protected.Use(middleware.JWTMiddleware(svc))
	{
		protected.GET("/me", authCtl.Me)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware(svc), middleware.RequireAdmin(svc))
	{
		admin.GET("/check", adminCtl.Check)
		admin.GET("/whitelist", adminCtl.ListWhitelist)
		admin.POST("/whitelist", adminCtl.Grant)
		admin.DELETE("/whitelist/:email", adminCtl.Revoke)
	}

	return r
}
