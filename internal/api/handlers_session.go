// handlers_session.go - Session lifecycle and phase machine handlers
package api

import (
	"net/http"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionDirectory
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions SessionDirectory) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

type createSessionRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// HandleCreateSession creates a session, restoring persisted state for a
// known id.
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	sess, err := h.sessions.Create(req.SessionID)
	if err != nil {
		return NewInternalError("failed to create session", err)
	}

	return c.JSON(http.StatusCreated, sess.Summarize())
}

// HandleGetSession returns the session status summary
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Summarize())
}

// HandleDeleteSession discards the session and its persisted state
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if err := h.sessions.Delete(id); err != nil {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

type setPhaseRequest struct {
	Phase models.Phase `json:"phase"`
}

// HandleSetPhase moves the workflow to a target phase
func (h *SessionHandlerImpl) HandleSetPhase(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	var req setPhaseRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Phase == "" {
		return NewValidationError("phase")
	}

	result := sess.SetPhase(req.Phase)
	if !result.IsValid {
		return NewStateError(result.Message)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleNextPhase advances the workflow exactly one step
func (h *SessionHandlerImpl) HandleNextPhase(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}

	result := sess.NextPhase()
	if !result.IsValid {
		return NewStateError(result.Message)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleGetHistory returns the operation history log
func (h *SessionHandlerImpl) HandleGetHistory(c echo.Context) error {
	sess, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.History())
}

func (h *SessionHandlerImpl) resolve(c echo.Context) (*session.Session, error) {
	id := c.Param("sessionId")
	if id == "" {
		return nil, NewValidationError("sessionId")
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return sess, nil
}
