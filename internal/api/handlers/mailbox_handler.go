package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailfeed/internal/api/response"
	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
)

// MailboxHandler exposes the mailbox lifecycle coordinator over HTTP
type MailboxHandler struct {
	manager   *services.MailboxManager
	mailboxes repository.MailboxRepository
}

// NewMailboxHandler creates a new MailboxHandler
func NewMailboxHandler(manager *services.MailboxManager, mailboxes repository.MailboxRepository) *MailboxHandler {
	return &MailboxHandler{manager: manager, mailboxes: mailboxes}
}

// CreateMailboxRequest represents the request body for creating a mailbox
type CreateMailboxRequest struct {
	Path            string `json:"path"`
	Subscribed      *bool  `json:"subscribed,omitempty"`
	Hidden          *bool  `json:"hidden,omitempty"`
	SpecialUse      string `json:"special_use,omitempty"`
	Retention       *int64 `json:"retention,omitempty"`
	EncryptMessages *bool  `json:"encrypt_messages,omitempty"`
}

// UpdateMailboxRequest represents the request body for updating a
// mailbox; a differing path renames it
type UpdateMailboxRequest struct {
	Path            string `json:"path,omitempty"`
	Subscribed      *bool  `json:"subscribed,omitempty"`
	Hidden          *bool  `json:"hidden,omitempty"`
	Retention       *int64 `json:"retention,omitempty"`
	EncryptMessages *bool  `json:"encrypt_messages,omitempty"`
}

// Create handles POST /api/users/:user/mailboxes
func (h *MailboxHandler) Create(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}

	var req CreateMailboxRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Path == "" {
		return response.BadRequest(c, "path is required")
	}

	id, err := h.manager.Create(c.Request().Context(), userID, req.Path, services.CreateOpts{
		Subscribed:      req.Subscribed,
		Hidden:          req.Hidden,
		SpecialUse:      req.SpecialUse,
		Retention:       req.Retention,
		EncryptMessages: req.EncryptMessages,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]uint{"id": id})
}

// List handles GET /api/users/:user/mailboxes. Each mailbox carries
// its current total and unseen message counts.
func (h *MailboxHandler) List(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}

	mailboxes, err := h.mailboxes.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return response.InternalError(c, "failed to list mailboxes")
	}

	return response.Success(c, map[string]interface{}{
		"mailboxes": mailboxes,
		"count":     len(mailboxes),
	})
}

// Get handles GET /api/users/:user/mailboxes/:mailbox
func (h *MailboxHandler) Get(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}
	mailboxID, err := paramUint(c, "mailbox")
	if err != nil {
		return response.BadRequest(c, "invalid mailbox ID")
	}

	mailbox, err := h.mailboxes.GetByID(c.Request().Context(), userID, mailboxID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "mailbox not found")
		}
		return response.InternalError(c, "failed to fetch mailbox")
	}

	return response.Success(c, mailbox)
}

// Update handles PUT /api/users/:user/mailboxes/:mailbox
func (h *MailboxHandler) Update(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}
	mailboxID, err := paramUint(c, "mailbox")
	if err != nil {
		return response.BadRequest(c, "invalid mailbox ID")
	}

	var req UpdateMailboxRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	err = h.manager.Update(c.Request().Context(), userID, mailboxID, services.UpdateSet{
		Path:            req.Path,
		Subscribed:      req.Subscribed,
		Hidden:          req.Hidden,
		Retention:       req.Retention,
		EncryptMessages: req.EncryptMessages,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"ok": true})
}

// Delete handles DELETE /api/users/:user/mailboxes/:mailbox
func (h *MailboxHandler) Delete(c echo.Context) error {
	userID, err := paramUint(c, "user")
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}
	mailboxID, err := paramUint(c, "mailbox")
	if err != nil {
		return response.BadRequest(c, "invalid mailbox ID")
	}

	err = h.manager.Delete(c.Request().Context(), userID, mailboxID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

// paramUint parses a numeric path parameter
func paramUint(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
