package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/model"
	"github.com/iliyamo/contact-book-api/internal/service"
)

// AuthHandler exposes signup, login, refresh and email-confirmation
// endpoints on top of the auth service.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type requestEmailReq struct {
	Email string `json:"email"`
}

type userResp struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Confirmed bool    `json:"confirmed"`
	Avatar    *string `json:"avatar"`
}

func toUserResp(u *model.User) userResp {
	return userResp{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		Confirmed: u.Confirmed,
		Avatar:    u.AvatarURL,
	}
}

// reqCtx bounds handler-initiated DB work; the parent request context still
// cancels it early when the client disconnects.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// baseURL reconstructs the externally visible origin of this request, used
// to compose the confirmation link.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// Signup creates an unconfirmed account and queues the confirmation email.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = model.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Username, req.Email, req.Password, baseURL(c))
	if err != nil {
		if errors.Is(err, auth.ErrAccountExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Login verifies credentials and returns a bearer token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email"})
		case errors.Is(err, auth.ErrEmailNotConfirmed):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email not confirmed"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken exchanges a bearer refresh token for a new pair, rotating
// the stored refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenIntentMismatch),
			errors.Is(err, auth.ErrRefreshRevoked),
			errors.Is(err, auth.ErrUserNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// ConfirmEmail redeems the confirmation token from the emailed link.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := reqCtx(c)
	defer cancel()

	already, err := h.Auth.ConfirmEmail(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrVerification):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
		case errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenIntentMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid confirmation token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

// RequestEmail re-sends the confirmation email. The response is identical
// whether or not the address is registered.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req requestEmailReq
	if err := c.Bind(&req); err != nil || model.NormalizeEmail(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	already, err := h.Auth.RequestConfirmation(ctx, req.Email, baseURL(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "check your email for confirmation"})
}
