package tts

import (
	"context"
	"errors"
)

// ErrEmptyText — нечего озвучивать.
var ErrEmptyText = errors.New("tts: empty text")

// Synthesizer абстракция TTS. Возвращает MP3 с озвученным текстом.
// languageCode — BCP 47 тег ("en-US", "hi-IN"), по нему выбирается голос.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, languageCode string) ([]byte, error)
}
