package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer — текстовый запрос к LLM (реализуется ai.TextClient).
type Completer interface {
	SendRequest(ctx context.Context, text string, imageURL string) (string, error)
}

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
}

// LLMBackend переводит текст через языковую модель.
type LLMBackend struct {
	client Completer
}

func NewLLMBackend(client Completer) *LLMBackend {
	return &LLMBackend{client: client}
}

func (b *LLMBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, without quotes or comments.\n\n%s",
		languageName(sourceLang), languageName(targetLang), text,
	)
	out, err := b.client.SendRequest(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("llm translator: empty response")
	}
	return out, nil
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
