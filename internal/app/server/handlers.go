package server

import (
	"AgroAssistant/internal/service/assistant"
	"AgroAssistant/internal/service/image"
	"AgroAssistant/internal/service/state"
	"AgroAssistant/internal/service/tts"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type processImageRequest struct {
	Image    string `json:"image"`
	Language string `json:"language"`
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type speakRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Ответы об ошибках
const (
	errInvalidBody      = "Invalid request body"
	errInvalidImage     = "Invalid image data URL"
	errImageTooLarge    = "Image is too large"
	errSessionNotFound  = "Session not started"
	errNoQuestion       = "No question provided"
	errSessionReplaced  = "Session was replaced by a newer image upload"
	errGenerationFailed = "Failed to generate a response"
	errTTSDisabled      = "Text-to-speech is disabled"
	errNoText           = "No text provided"
	errTTSFailed        = "Failed to synthesize speech"
)

func (s *Server) handleHealth(c *gin.Context) {
	_, active := s.sessions.Active()
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "agro-assistant",
		"session_active": active,
		"tts":            s.tts != nil,
	})
}

func (s *Server) handleProcessImage(c *gin.Context) {
	if s.cfg.ImageMaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.ImageMaxUploadBytes)
	}
	var req processImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errImageTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	payload, err := image.SplitDataURL(req.Image)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidImage})
		return
	}

	session := s.sessions.StartNewSession(req.Language)
	response := session.ProcessImage(c.Request.Context(), payload)

	c.JSON(http.StatusOK, gin.H{
		"response":   response,
		"session_id": session.ID(),
		"language":   session.Language().Code(),
	})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}

	response, status, err := s.answer(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": publicError(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

// answer — общая часть /ask и /ws. Возвращает HTTP статус для ошибки.
func (s *Server) answer(ctx context.Context, req askRequest) (string, int, error) {
	session, err := s.sessions.Get(req.SessionID)
	switch {
	case errors.Is(err, state.ErrNoSession):
		return "", http.StatusBadRequest, err
	case err != nil:
		return "", http.StatusConflict, err
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", http.StatusBadRequest, errMissingQuestion
	}

	response, err := session.GenerateResponse(ctx, question)
	if err != nil {
		if errors.Is(err, assistant.ErrSessionReplaced) {
			return "", http.StatusConflict, err
		}
		return "", http.StatusBadGateway, err
	}
	return response, http.StatusOK, nil
}

var errMissingQuestion = errors.New("question is empty")

// publicError переводит внутреннюю ошибку в текст для клиента.
func publicError(err error) string {
	var genErr *assistant.GenerationError
	switch {
	case errors.Is(err, state.ErrNoSession):
		return errSessionNotFound
	case errors.Is(err, assistant.ErrSessionReplaced):
		return errSessionReplaced
	case errors.Is(err, errMissingQuestion):
		return errNoQuestion
	case errors.As(err, &genErr):
		return errGenerationFailed
	default:
		return errInvalidBody
	}
}

func (s *Server) handleSpeak(c *gin.Context) {
	if s.tts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errTTSDisabled})
		return
	}
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}

	lang := assistant.ParseLanguage(req.Language)
	audio, err := s.tts.Synthesize(c.Request.Context(), req.Text, lang.Locale())
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, tts.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoText})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": errTTSFailed})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
