package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/service"
	"github.com/lshigami/voicequiz/internal/store"
)

type SessionController struct {
	sessionSvc service.SessionService
}

func NewSessionController(sessionSvc service.SessionService) *SessionController {
	return &SessionController{sessionSvc: sessionSvc}
}

// respondError maps typed service and store failures onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrSessionExpired),
		errors.Is(err, service.ErrNoQuestionToRate), errors.Is(err, service.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrSessionBusy):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidPhase):
		status = http.StatusConflict
	case errors.Is(err, service.ErrAudioTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedAudio):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTranscriptionFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

// CreateSession godoc
// @Summary Create a new quiz session
// @Description Configure a quiz session. The session starts idle; call /start to get the first question.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session body dto.CreateSessionRequest true "Session configuration"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid configuration"
// @Router /sessions [post]
func (ctrl *SessionController) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateSessionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := ctrl.sessionSvc.CreateSession(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSession godoc
// @Summary Get session state
// @Description Current phase, progress and scoreboard of a session.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Router /sessions/{session_id} [get]
func (ctrl *SessionController) GetSession(c *gin.Context) {
	resp, err := ctrl.sessionSvc.GetSession(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartSession godoc
// @Summary Start the quiz
// @Description Transition an idle session to its first question. Optional body excludes question ids already seen elsewhere.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param exclusions body dto.StartSessionRequest false "Previously seen question ids"
// @Success 200 {object} dto.InputResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Failure 409 {object} dto.ErrorResponse "Session already started"
// @Router /sessions/{session_id}/start [post]
func (ctrl *SessionController) StartSession(c *gin.Context) {
	var req dto.StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
			return
		}
	}

	resp, err := ctrl.sessionSvc.Start(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitInput godoc
// @Summary Submit a text input against the session
// @Description One free-form utterance: an answer, a command (skip, quit, harder) or a mix. Returns the evaluation and the next question.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param input body dto.SubmitInputRequest true "Raw input text"
// @Success 200 {object} dto.InputResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Failure 409 {object} dto.ErrorResponse "Session not accepting input"
// @Failure 429 {object} dto.ErrorResponse "Another input is being processed"
// @Router /sessions/{session_id}/input [post]
func (ctrl *SessionController) SubmitInput(c *gin.Context) {
	var req dto.SubmitInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := ctrl.sessionSvc.SubmitInput(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		log.Warn().Err(err).Str("session_id", c.Param("session_id")).Msg("Input submission rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RateQuestion godoc
// @Summary Rate the most recent question
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param rating body dto.RateQuestionRequest true "Rating 1-5 with optional feedback"
// @Success 200 {object} dto.AckResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or nothing to rate"
// @Router /sessions/{session_id}/rate [post]
func (ctrl *SessionController) RateQuestion(c *gin.Context) {
	var req dto.RateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := ctrl.sessionSvc.RateQuestion(c.Request.Context(), c.Param("session_id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AckResponse{Success: true, Message: "Rating saved"})
}

// EndSession godoc
// @Summary End the quiz early
// @Description Finishes the session immediately. Final scores remain readable until the session expires.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Router /sessions/{session_id}/end [post]
func (ctrl *SessionController) EndSession(c *gin.Context) {
	resp, err := ctrl.sessionSvc.EndSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSession godoc
// @Summary Delete a session
// @Description Idempotent removal. Succeeds even if the session is already gone.
// @Tags Sessions
// @Param session_id path string true "Session ID"
// @Success 204 "Deleted"
// @Router /sessions/{session_id} [delete]
func (ctrl *SessionController) DeleteSession(c *gin.Context) {
	ctrl.sessionSvc.DeleteSession(c.Param("session_id"))
	c.Status(http.StatusNoContent)
}

// ExtendSession godoc
// @Summary Extend the session TTL
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param extension body dto.ExtendSessionRequest false "Minutes to extend by (defaults to the configured TTL)"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Router /sessions/{session_id}/extend [post]
func (ctrl *SessionController) ExtendSession(c *gin.Context) {
	var req dto.ExtendSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
			return
		}
	}

	resp, err := ctrl.sessionSvc.ExtendSession(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddParticipant godoc
// @Summary Join a multiplayer session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param participant body dto.AddParticipantRequest true "Display name and optional user id"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse "Session is single player"
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Router /sessions/{session_id}/participants [post]
func (ctrl *SessionController) AddParticipant(c *gin.Context) {
	var req dto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := ctrl.sessionSvc.AddParticipant(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveParticipant godoc
// @Summary Leave a multiplayer session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Param participant_id path string true "Participant ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} dto.ErrorResponse "Session or participant not found"
// @Router /sessions/{session_id}/participants/{participant_id} [delete]
func (ctrl *SessionController) RemoveParticipant(c *gin.Context) {
	resp, err := ctrl.sessionSvc.RemoveParticipant(c.Request.Context(), c.Param("session_id"), c.Param("participant_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
