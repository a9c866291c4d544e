package assistant

import (
	"AgroAssistant/internal/ai"
	"AgroAssistant/internal/service/image"
	"AgroAssistant/internal/service/metrics"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Translator переводит текст и никогда не падает: при ошибке возвращает исходный текст.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) string
}

// ImageDecoder проверяет и нормализует картинку из base64.
type ImageDecoder interface {
	ProcessBase64(encoded string) (image.ProcessedImage, error)
}

// Deps — внешние зависимости сессии.
type Deps struct {
	Dialogue   ai.DialogueClient
	Translator Translator
	Images     ImageDecoder
	// Timeout ограничивает каждый вызов модели. 0 — без ограничения сверх контекста вызывающего.
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// forgetter — клиенты, которые хранят историю у себя и умеют её освобождать.
type forgetter interface {
	Forget(id string)
}

// Session — один диалог о загруженной картинке.
// До первой успешной картинки сессия не начата, после Retire любые вопросы отклоняются.
type Session struct {
	id   string
	deps Deps

	mu             sync.Mutex
	language       Language
	conversationID string

	retired  atomic.Bool
	lastUsed atomic.Int64
}

func NewSession(id string, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	s := &Session{id: id, deps: deps, language: LanguageNative}
	s.touch()
	return s
}

func (s *Session) ID() string { return s.id }

// LastUsed — время последнего обращения пользователя.
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

func (s *Session) touch() { s.lastUsed.Store(time.Now().UnixNano()) }

// SetLanguage выставляет язык по подсказке локали.
func (s *Session) SetLanguage(localeHint string) {
	s.mu.Lock()
	s.language = ParseLanguage(localeHint)
	s.mu.Unlock()
}

func (s *Session) Language() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Started — есть ли у сессии контекст модели с картинкой.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID != ""
}

// Retire закрывает сессию навсегда. Повторный вызов ничего не делает.
func (s *Session) Retire() {
	if !s.retired.CompareAndSwap(false, true) {
		return
	}
	s.deps.Logger.Debugw("Сессия закрыта", "session_id", s.id)
	f, ok := s.deps.Dialogue.(forgetter)
	if !ok {
		return
	}
	// не ждём здесь текущий вызов модели: историю освободим, когда он закончится
	go func() {
		s.mu.Lock()
		convID := s.conversationID
		s.conversationID = ""
		s.mu.Unlock()
		if convID != "" {
			f.Forget(convID)
		}
	}()
}

func (s *Session) Retired() bool { return s.retired.Load() }

// ProcessImage описывает картинку и начинает диалог о ней.
// Ошибки не возвращаются: пользователь получает переведённое "Error processing image".
func (s *Session) ProcessImage(ctx context.Context, payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	// вызов модели может идти дольше TTL простоя: отмечаем и окончание
	defer s.touch()

	lang := s.language
	description, err := s.describe(ctx, payload)
	if err != nil {
		s.deps.Logger.Errorw("Не удалось обработать картинку", "session_id", s.id, "error", err)
		return s.translate(ctx, msgImageError, lang.Code(), LanguageNative.Code())
	}
	return s.translate(ctx, description, lang.Code(), LanguageNative.Code())
}

func (s *Session) describe(ctx context.Context, payload string) (string, error) {
	if s.retired.Load() {
		return "", ErrSessionReplaced
	}
	img, err := s.deps.Images.ProcessBase64(payload)
	if err != nil {
		return "", err
	}
	s.deps.Logger.Infow("Картинка принята",
		"session_id", s.id,
		"format", img.SourceFormat,
		"width", img.Width,
		"height", img.Height,
		"bytes", img.SizeBytes,
	)

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	convID, err := s.deps.Dialogue.CreateConversation(callCtx, instructions)
	if err != nil {
		observe("describe", time.Time{}, err)
		return "", &GenerationError{Op: "describe", Err: err}
	}

	start := time.Now()
	description, err := s.deps.Dialogue.SendMessage(callCtx, convID, describePrompt, []string{img.DataURL()})
	observe("describe", start, err)
	if err != nil {
		if f, ok := s.deps.Dialogue.(forgetter); ok {
			f.Forget(convID)
		}
		return "", &GenerationError{Op: "describe", Err: err}
	}

	if s.conversationID != "" {
		if f, ok := s.deps.Dialogue.(forgetter); ok {
			f.Forget(s.conversationID)
		}
	}
	s.conversationID = convID
	return description, nil
}

// GenerateResponse отвечает на вопрос в контексте загруженной картинки.
// Ошибка модели возвращается вызывающему: после начала диалога молча деградировать нельзя.
func (s *Session) GenerateResponse(ctx context.Context, question string) (string, error) {
	if s.retired.Load() {
		return "", ErrSessionReplaced
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	defer s.touch()

	// сессию могли заменить, пока ждали блокировку
	if s.retired.Load() {
		return "", ErrSessionReplaced
	}

	lang := s.language
	native := LanguageNative.Code()

	if s.conversationID == "" {
		return s.translate(ctx, msgNotStarted, lang.Code(), native), nil
	}

	if ClassifyIntent(question) == IntentStop {
		s.deps.Logger.Infow("Пользователь попросил остановиться", "session_id", s.id)
		return s.translate(ctx, msgFarewell, lang.Code(), native), nil
	}

	englishQuestion := s.translate(ctx, question, native, lang.Code())

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	answer, err := s.deps.Dialogue.SendMessage(callCtx, s.conversationID, englishQuestion, nil)
	observe("ask", start, err)
	if err != nil {
		s.deps.Logger.Errorw("Модель не ответила", "session_id", s.id, "error", err)
		return "", &GenerationError{Op: "ask", Err: err}
	}

	return s.translate(ctx, answer, lang.Code(), native), nil
}

func (s *Session) translate(ctx context.Context, text, targetLang, sourceLang string) string {
	if s.deps.Translator == nil {
		return text
	}
	return s.deps.Translator.Translate(ctx, text, targetLang, sourceLang)
}

func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deps.Timeout > 0 {
		return context.WithTimeout(ctx, s.deps.Timeout)
	}
	return context.WithCancel(ctx)
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
	}
	metrics.GenerationRequestsTotal.WithLabelValues(op, result).Inc()
	if !start.IsZero() {
		metrics.GenerationDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
