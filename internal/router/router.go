package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/handler"
	"github.com/iliyamo/contact-book-api/internal/middleware"
	"github.com/iliyamo/contact-book-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, which
// load balancers and monitoring can poll to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /api/auth. None
// of them require an existing session: signup and login establish one,
// refresh_token exchanges a refresh token presented as a bearer credential,
// and the email confirmation pair completes the signup flow. The optional
// limiter middleware throttles the endpoints that send mail or verify
// passwords.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Rotates the refresh token: the presented token is exchanged for a new
	// pair and can never be redeemed again.
	g.GET("/refresh_token", a.RefreshToken)
	g.GET("/confirmed_email/:token", a.ConfirmEmail)
	g.POST("/request_email", a.RequestEmail)
}

// RegisterUsers registers the authenticated account endpoints under
// /api/users. The auth middleware resolves the bearer token to a full user
// before any handler runs.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/users", auth)
	g.GET("/me", u.Me)
	g.PATCH("/avatar", u.UpdateAvatar)
}

// RegisterContacts registers the contact CRUD and search endpoints under
// /api/contacts. Every route requires a valid access token; /all is
// additionally restricted to moderators and administrators. All other
// routes operate strictly on the requester's own contacts.
func RegisterContacts(e *echo.Echo, h *handler.ContactHandler, auth echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/contacts", auth)
	if limiter != nil {
		g.Use(limiter)
	}
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/all", h.ListAll, middleware.RequireRole(model.RoleModerator, model.RoleAdmin))
	g.GET("/search/", h.Search)
	g.GET("/birthdays", h.Birthdays)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
