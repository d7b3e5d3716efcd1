package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/middleware"
	"github.com/iliyamo/contact-book-api/internal/model"
	"github.com/iliyamo/contact-book-api/internal/repository"
)

// ContactStore is the persistence surface the contact handlers depend on,
// implemented by repository.ContactRepo. Every owner-scoped method treats a
// foreign contact id exactly like a missing one.
type ContactStore interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error)
	ListByOwner(ctx context.Context, ownerID uint64, limit, offset int) ([]*model.Contact, error)
	ListAll(ctx context.Context, limit, offset int) ([]*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id, ownerID uint64) error
	Search(ctx context.Context, ownerID uint64, query string) ([]*model.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID uint64, today time.Time) ([]*model.Contact, error)
}

// ContactHandler exposes the contact CRUD and search endpoints. Now is
// injectable so the birthday window is testable; nil means time.Now.
type ContactHandler struct {
	Contacts ContactStore
	Now      func() time.Time
}

func NewContactHandler(store ContactStore) *ContactHandler {
	return &ContactHandler{Contacts: store}
}

func (h *ContactHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// ----- DTOs -----

type contactReq struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Birthday       string `json:"birthday"` // YYYY-MM-DD
	AdditionalData string `json:"additional_data"`
}

type ownerPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type contactResp struct {
	ID             uint64    `json:"id"`
	Firstname      string    `json:"firstname"`
	Lastname       string    `json:"lastname"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       string    `json:"birthday"`
	AdditionalData string    `json:"additional_data"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Owner          ownerPart `json:"owner"`
}

func toContactResp(c *model.Contact) contactResp {
	return contactResp{
		ID:             c.ID,
		Firstname:      c.Firstname,
		Lastname:       c.Lastname,
		Email:          c.Email,
		Phone:          c.Phone,
		Birthday:       c.Birthday.Format("2006-01-02"),
		AdditionalData: c.AdditionalData,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Owner:          ownerPart{ID: c.OwnerID, Username: c.OwnerUsername, Email: c.OwnerEmail},
	}
}

func toContactResps(cs []*model.Contact) []contactResp {
	out := make([]contactResp, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContactResp(c))
	}
	return out
}

// parseContactReq validates the body and converts it into a model record
// for the given owner.
func parseContactReq(c echo.Context, ownerID uint64) (*model.Contact, error) {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return nil, errors.New("invalid body")
	}
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)
	req.Email = strings.TrimSpace(req.Email)
	if req.Firstname == "" || req.Lastname == "" || req.Email == "" {
		return nil, errors.New("firstname/lastname/email required")
	}
	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return nil, errors.New("birthday must be YYYY-MM-DD")
	}
	return &model.Contact{
		OwnerID:        ownerID,
		Firstname:      req.Firstname,
		Lastname:       req.Lastname,
		Email:          req.Email,
		Phone:          req.Phone,
		Birthday:       birthday,
		AdditionalData: req.AdditionalData,
	}, nil
}

func pagination(c echo.Context) (limit, offset int) {
	limit = 10
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 500 {
		limit = 500
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func contactID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List returns the requester's contacts.
func (h *ContactHandler) List(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.ListByOwner(ctx, u.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// ListAll returns contacts across all owners. The route is gated to
// moderator/admin before this handler runs.
func (h *ContactHandler) ListAll(c echo.Context) error {
	limit, offset := pagination(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.ListAll(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// Get returns one of the requester's contacts; anyone else's id is a 404.
func (h *ContactHandler) Get(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contact, err := h.Contacts.GetByIDAndOwner(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResp(contact))
}

// Create adds a contact owned by the requester.
func (h *ContactHandler) Create(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	contact, err := parseContactReq(c, u.ID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Contacts.Create(ctx, contact); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toContactResp(contact))
}

// Update rewrites one of the requester's contacts; foreign ids are a 404.
func (h *ContactHandler) Update(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}
	contact, err := parseContactReq(c, u.ID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	contact.ID = id

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Contacts.Update(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toContactResp(contact))
}

// Delete removes one of the requester's contacts; foreign ids are a 404.
func (h *ContactHandler) Delete(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Contacts.Delete(ctx, id, u.ID); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search matches the requester's contacts by name or email substring.
func (h *ContactHandler) Search(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.Search(ctx, u.ID, query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// Birthdays returns the requester's contacts with a birthday in the next
// seven days, inclusive of today.
func (h *ContactHandler) Birthdays(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.UpcomingBirthdays(ctx, u.ID, h.now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}
