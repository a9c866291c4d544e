package ai

import (
	"AgroAssistant/internal/adapter/localconversation"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// GeminiDialogueClient реализует DialogueClient поверх Gemini generateContent REST API.
// Gemini не хранит диалог на сервере, поэтому история держится локально и отправляется целиком.
type GeminiDialogueClient struct {
	apiKey string
	model  string
	client *resty.Client
	logger *zap.SugaredLogger

	*conversations
}

func NewGeminiDialogueClient(apiKey, model, baseURL string, maxRecords int, logger *zap.SugaredLogger) *GeminiDialogueClient {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")

	return &GeminiDialogueClient{
		apiKey:        apiKey,
		model:         model,
		client:        client,
		logger:        logger,
		conversations: newConversations(maxRecords),
	}
}

func (c *GeminiDialogueClient) CreateConversation(_ context.Context, instructions string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("gemini: empty api key")
	}
	return c.create(instructions), nil
}

func (c *GeminiDialogueClient) SendMessage(ctx context.Context, conversationID string, text string, imageURLs []string) (string, error) {
	instructions, history, err := c.snapshot(conversationID)
	if err != nil {
		return "", err
	}

	current := localconversation.Turn{Role: localconversation.RoleUser, Text: text, ImageURLs: imageURLs}

	req := geminiRequest{Contents: make([]content, 0, len(history)+1)}
	if instructions != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: instructions}}}
	}
	for _, t := range append(history, current) {
		ct, err := turnToContent(t)
		if err != nil {
			return "", err
		}
		req.Contents = append(req.Contents, ct)
	}

	start := time.Now()
	var out geminiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post("/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	c.logger.Infow("Ответ Gemini получен", "duration", time.Since(start).String(), "conversation", conversationID)

	answer, err := out.text()
	if err != nil {
		return "", err
	}
	c.record(conversationID, current, localconversation.Turn{Text: answer})
	return answer, nil
}

func (r *geminiResponse) text() (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", r.PromptFeedback.BlockReason)
	}
	if len(r.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: no text part in response (finish reason %q)", r.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

func turnToContent(t localconversation.Turn) (content, error) {
	if t.Role == localconversation.RoleAssistant {
		return content{Role: "model", Parts: []part{{Text: t.Text}}}, nil
	}
	parts := []part{{Text: t.Text}}
	for _, u := range t.ImageURLs {
		mime, data, err := parseDataURL(u)
		if err != nil {
			return content{}, err
		}
		parts = append(parts, part{InlineData: &inlineData{MimeType: mime, Data: data}})
	}
	return content{Role: "user", Parts: parts}, nil
}

// parseDataURL разбирает "data:<mime>;base64,<payload>". Gemini принимает картинки только inline.
func parseDataURL(u string) (string, string, error) {
	header, data, ok := strings.Cut(u, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", "", fmt.Errorf("gemini: expected base64 data URL, got %.32q", u)
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if mime == "" {
		mime = "image/jpeg"
	}
	return mime, data, nil
}
