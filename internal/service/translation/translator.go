package translation

import (
	"AgroAssistant/internal/service/metrics"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultChunkSize — ограничение бесплатного API перевода на длину запроса.
const DefaultChunkSize = 450

// Backend — внешний сервис перевода. sourceLang и targetLang в формате ISO 639-1 ("en", "hi").
type Backend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TranslationError — сбой бэкенда перевода. Наружу не выходит: переводчик логирует его и возвращает исходный текст.
type TranslationError struct {
	SourceLang string
	TargetLang string
	Err        error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %s->%s: %v", e.SourceLang, e.TargetLang, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// Translator оборачивает Backend: режет длинный текст на куски и никогда не падает.
type Translator struct {
	backend   Backend
	chunkSize int
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// New создаёт переводчик. backend == nil означает «перевод выключен»: текст возвращается как есть.
func New(backend Backend, chunkSize int, timeout time.Duration, logger *zap.SugaredLogger) *Translator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Translator{backend: backend, chunkSize: chunkSize, timeout: timeout, logger: logger}
}

// Translate переводит text с sourceLang на targetLang.
// При совпадении языков запрос не выполняется. При любой ошибке возвращается исходный текст.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) string {
	if sourceLang == targetLang || t.backend == nil || strings.TrimSpace(text) == "" {
		metrics.TranslationsTotal.WithLabelValues("skipped").Inc()
		return text
	}

	out, err := t.translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		t.logger.Warnw("Ошибка перевода, возвращаем исходный текст",
			"source", sourceLang, "target", targetLang, "runes", utf8.RuneCountInString(text), "error", err)
		metrics.TranslationsTotal.WithLabelValues("fallback").Inc()
		return text
	}
	metrics.TranslationsTotal.WithLabelValues("ok").Inc()
	return out
}

func (t *Translator) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if utf8.RuneCountInString(text) <= t.chunkSize {
		return t.translateChunk(ctx, text, sourceLang, targetLang)
	}

	var sb strings.Builder
	for _, chunk := range SplitChunks(text, t.chunkSize) {
		out, err := t.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// translateChunk переводит один кусок, сохраняя его крайние пробелы: бэкенды их обрезают.
func (t *Translator) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	core := strings.TrimFunc(chunk, unicode.IsSpace)
	if core == "" {
		return chunk, nil
	}
	start := strings.Index(chunk, core)
	lead, trail := chunk[:start], chunk[start+len(core):]

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	metrics.TranslationChunksTotal.Inc()
	out, err := t.backend.Translate(ctx, core, sourceLang, targetLang)
	if err != nil {
		return "", &TranslationError{SourceLang: sourceLang, TargetLang: targetLang, Err: err}
	}
	return lead + out + trail, nil
}
