package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/service"
)

type VoiceController struct {
	sessionSvc  service.SessionService
	transcriber service.Transcriber
}

func NewVoiceController(sessionSvc service.SessionService, transcriber service.Transcriber) *VoiceController {
	return &VoiceController{sessionSvc: sessionSvc, transcriber: transcriber}
}

// SubmitVoice godoc
// @Summary Submit a spoken input against the session
// @Description Multipart upload of an audio answer. The audio is transcribed and processed exactly like text input.
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param session_id path string true "Session ID"
// @Param audio formData file true "Audio file (mp3, mp4, m4a, wav, webm, ogg, max 25MB)"
// @Param participant_id formData string false "Participant scoring this answer"
// @Success 200 {object} dto.InputResponse
// @Failure 404 {object} dto.ErrorResponse "Session not found or expired"
// @Failure 413 {object} dto.ErrorResponse "Audio exceeds the size limit"
// @Failure 422 {object} dto.ErrorResponse "Unsupported audio format"
// @Failure 502 {object} dto.ErrorResponse "Transcription provider failed"
// @Router /sessions/{session_id}/voice [post]
func (ctrl *VoiceController) SubmitVoice(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing audio file", Details: []string{err.Error()}})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to read audio file", Details: []string{err.Error()}})
		return
	}
	defer file.Close()

	var participantID *string
	if pid := c.PostForm("participant_id"); pid != "" {
		participantID = &pid
	}

	resp, err := ctrl.sessionSvc.SubmitVoice(c.Request.Context(), c.Param("session_id"), file, fileHeader.Filename, fileHeader.Size, participantID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", c.Param("session_id")).Str("filename", fileHeader.Filename).Msg("Voice submission rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transcribe godoc
// @Summary Transcribe an audio file
// @Description Standalone speech-to-text without touching any session. Useful for client-side previews.
// @Tags Voice
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio file (mp3, mp4, m4a, wav, webm, ogg, max 25MB)"
// @Param language formData string false "ISO 639-1 language hint"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 413 {object} dto.ErrorResponse "Audio exceeds the size limit"
// @Failure 422 {object} dto.ErrorResponse "Unsupported audio format"
// @Failure 502 {object} dto.ErrorResponse "Transcription provider failed"
// @Router /transcribe [post]
func (ctrl *VoiceController) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing audio file", Details: []string{err.Error()}})
		return
	}
	if fileHeader.Size > service.MaxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: "Audio exceeds the 25MB limit"})
		return
	}
	if !service.IsSupportedAudioFormat(fileHeader.Filename) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Message: "Unsupported audio format"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to read audio file", Details: []string{err.Error()}})
		return
	}
	defer file.Close()

	language := c.PostForm("language")
	text, err := ctrl.transcriber.TranscribeAnswer(c.Request.Context(), file, fileHeader.Filename, language, "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TranscriptionResponse{
		Success:  true,
		Text:     text,
		Language: language,
		Filename: fileHeader.Filename,
	})
}
