// Package httpapi exposes the account service as the JSON-over-HTTP surface
// the frontend talks to. Every user-visible outcome is a uniform
// {success, message} result; internal error detail never crosses this
// boundary.
package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/snoofz/snofbase/internal/common"
	"github.com/snoofz/snofbase/internal/logging"
	"github.com/snoofz/snofbase/internal/server/auth"
	"github.com/snoofz/snofbase/internal/server/chat"
	"github.com/snoofz/snofbase/internal/server/identity"
	"github.com/snoofz/snofbase/internal/snof"
)

const sessionCookieName = "session"

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	identity   *identity.Service
	board      *chat.Board
	logger     logging.Logger
	secret     []byte
	sessionTTL time.Duration
}

func NewHandler(identitySvc *identity.Service, board *chat.Board, logger logging.Logger,
	secret []byte, sessionTTL time.Duration) *Handler {
	return &Handler{
		identity:   identitySvc,
		board:      board,
		logger:     logger,
		secret:     secret,
		sessionTTL: sessionTTL,
	}
}

func ok(c fiber.Ctx, message string) error {
	return c.JSON(result{Success: true, Message: message})
}

// refused reports a business failure. The original frontend inspects the
// success flag, not the status code, so these go out as 200s.
func refused(c fiber.Ctx, message string) error {
	return c.JSON(result{Success: false, Message: message})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(result{Success: false, Message: message})
}

func (h *Handler) internal(c fiber.Ctx, err error) error {
	h.logger.Error(c.Context(), "request failed", "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(result{Success: false, Message: "Internal server error"})
}

func (h *Handler) register(c fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	err := h.identity.Register(c.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		return ok(c, "Verification code sent")
	case errors.Is(err, common.ErrorValidation):
		return badRequest(c, "Username, email and password are required")
	case errors.Is(err, common.ErrorUsernameTaken):
		return refused(c, "Username already exists")
	case errors.Is(err, common.ErrorDelivery):
		return refused(c, "Could not send the verification email")
	default:
		return h.internal(c, err)
	}
}

func (h *Handler) verify(c fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	_, err := h.identity.Verify(c.Context(), req.Email, req.Code)
	switch {
	case err == nil:
		return ok(c, "Account verified")
	case errors.Is(err, common.ErrorInvalidOrExpired):
		return refused(c, "Invalid or expired verification code")
	case errors.Is(err, common.ErrorUsernameTaken):
		return refused(c, "Username already exists")
	default:
		return h.internal(c, err)
	}
}

func (h *Handler) login(c fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	rec, err := h.identity.Login(c.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorInvalidCredentials):
		return refused(c, "Invalid credentials")
	default:
		return h.internal(c, err)
	}

	username, _ := rec.Get(snof.FieldUsername)
	token, err := auth.GenerateSessionToken(username, h.secret, h.sessionTTL)
	if err != nil {
		return h.internal(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.sessionTTL),
		HTTPOnly: true,
		Path:     "/",
	})
	return ok(c, "")
}

func (h *Handler) logout(c fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
	return ok(c, "Logged out successfully")
}

// profile handles the multipart profile form: an optional pfpFile upload and
// an optional rename. The acting account comes from the session, never from
// the form.
func (h *Handler) profile(c fiber.Ctx) error {
	username := sessionUsername(c)

	var pfpBase64 string
	if fh, err := c.FormFile("pfpFile"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return h.internal(c, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return h.internal(c, err)
		}
		pfpBase64 = base64.StdEncoding.EncodeToString(data)
	}

	newUsername := c.FormValue("newUsername")

	err := h.identity.UpdateProfile(c.Context(), username, newUsername, pfpBase64, c.IP())
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorUsernameTaken):
		return refused(c, "Username already exists")
	case errors.Is(err, common.ErrorNotFound):
		return refused(c, "User not found")
	default:
		return h.internal(c, err)
	}

	resp := fiber.Map{"success": true, "message": "Profile updated successfully"}
	if pfpBase64 != "" {
		resp["newPfp"] = "data:image/jpeg;base64," + pfpBase64
	}
	return c.JSON(resp)
}

func (h *Handler) requestReset(c fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	res, err := h.identity.RequestPasswordReset(c.Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		return refused(c, "User not found")
	default:
		return h.internal(c, err)
	}

	if !res.Delivered {
		return ok(c, "Reset token issued but the email could not be delivered")
	}
	return ok(c, "Reset email sent")
}

func (h *Handler) resetPassword(c fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	err := h.identity.ResetPassword(c.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		return ok(c, "Password reset successfully")
	case errors.Is(err, common.ErrorValidation):
		return badRequest(c, "New password is required")
	case errors.Is(err, common.ErrorInvalidOrExpired):
		return refused(c, "Invalid or expired reset token")
	default:
		return h.internal(c, err)
	}
}

func (h *Handler) chatMessages(c fiber.Ctx) error {
	return c.JSON(h.board.Messages())
}

func (h *Handler) postChatMessage(c fiber.Ctx) error {
	var msg chat.Message
	if err := c.Bind().JSON(&msg); err != nil {
		return badRequest(c, "Invalid message format")
	}
	if msg.Username == "" || msg.Pfp == "" || msg.Text == "" {
		return badRequest(c, "Invalid message format")
	}

	h.board.Post(msg)
	return c.Status(fiber.StatusCreated).JSON(result{Success: true, Message: "Message sent"})
}
