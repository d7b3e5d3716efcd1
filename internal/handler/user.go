package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/middleware"
	"github.com/iliyamo/contact-book-api/internal/service"
	"github.com/iliyamo/contact-book-api/internal/storage"
)

// UserHandler exposes the current-user profile endpoints.
type UserHandler struct {
	Auth    *service.AuthService
	Avatars storage.AvatarStore
}

func NewUserHandler(a *service.AuthService, avatars storage.AvatarStore) *UserHandler {
	return &UserHandler{Auth: a, Avatars: avatars}
}

// Me returns the authenticated account.
func (h *UserHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// UpdateAvatar stores an uploaded image through the avatar store and
// persists its URL on the account. The cached identity is rewritten under
// the same key so the change is visible on the next request.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()

	url, err := h.Avatars.Upload(ctx, u.Email, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar upload failed"})
	}
	updated, err := h.Auth.UpdateAvatar(ctx, u.Email, url)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar update failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(updated))
}
