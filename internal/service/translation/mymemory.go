package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// MyMemory — бэкенд бесплатного API переводов MyMemory (https://mymemory.translated.net).
type MyMemory struct {
	client *resty.Client
	email  string
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// API отдаёт статус то числом, то строкой
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

// NewMyMemory создаёт клиента. email опционален и увеличивает дневной лимит.
func NewMyMemory(baseURL, email string) *MyMemory {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	// без повторов: на кусок один запрос, при ошибке Translator вернёт исходный текст
	client.SetTimeout(30 * time.Second)
	return &MyMemory{client: client, email: email}
}

func (m *MyMemory) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := map[string]string{
		"q":        text,
		"langpair": sourceLang + "|" + targetLang,
	}
	if m.email != "" {
		params["de"] = m.email
	}

	var out myMemoryResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/get")
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("mymemory error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if status := statusCode(out.ResponseStatus); status != 0 && status != 200 {
		return "", fmt.Errorf("mymemory error (status %d): %s", status, out.ResponseDetails)
	}
	translated := out.ResponseData.TranslatedText
	if translated == "" {
		return "", errors.New("mymemory: empty translation")
	}
	return translated, nil
}

func statusCode(v any) int {
	switch s := v.(type) {
	case float64:
		return int(s)
	case string:
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
