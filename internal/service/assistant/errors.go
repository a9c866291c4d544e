package assistant

import (
	"errors"
	"fmt"
)

// ErrSessionReplaced — сессию заменили новой загрузкой картинки, обращаться к ней больше нельзя.
var ErrSessionReplaced = errors.New("session was replaced by a newer image upload")

// GenerationError — ошибка обращения к модели (describe или ask).
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
