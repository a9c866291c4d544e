package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testImageURL = "data:image/jpeg;base64,/9j/AAAA"

func TestGeminiDialogueClient_MultiTurn(t *testing.T) {
	var bodies []geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "key stays out of the URL")

		var req geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		bodies = append(bodies, req)

		w.Header().Set("Content-Type", "application/json")
		answer := "a wheat field"
		if len(bodies) > 1 {
			answer = "aphids on leaves"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": answer}}},
			}},
		})
	}))
	defer srv.Close()

	c := NewGeminiDialogueClient("secret", "gemini-test", srv.URL, 10, zap.NewNop().Sugar())
	ctx := context.Background()

	id, err := c.CreateConversation(ctx, "you are an agronomist")
	require.NoError(t, err)

	out, err := c.SendMessage(ctx, id, "describe", []string{testImageURL})
	require.NoError(t, err)
	assert.Equal(t, "a wheat field", out)

	out, err = c.SendMessage(ctx, id, "what pests?", nil)
	require.NoError(t, err)
	assert.Equal(t, "aphids on leaves", out)

	require.Len(t, bodies, 2)
	require.NotNil(t, bodies[0].SystemInstruction)
	assert.Equal(t, "you are an agronomist", bodies[0].SystemInstruction.Parts[0].Text)

	first := bodies[0].Contents
	require.Len(t, first, 1)
	require.Len(t, first[0].Parts, 2)
	assert.Equal(t, "image/jpeg", first[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "/9j/AAAA", first[0].Parts[1].InlineData.Data)

	second := bodies[1].Contents
	require.Len(t, second, 3)
	assert.Equal(t, []string{"user", "model", "user"}, []string{second[0].Role, second[1].Role, second[2].Role})
	assert.NotNil(t, second[0].Parts[1].InlineData, "image stays in context for follow-ups")
	assert.Equal(t, "what pests?", second[2].Parts[0].Text)
}

func TestGeminiDialogueClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := NewGeminiDialogueClient("bad", "gemini-test", srv.URL, 10, zap.NewNop().Sugar())
	id, err := c.CreateConversation(context.Background(), "")
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), id, "describe", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	// неудачный запрос не попадает в историю
	_, history, err := c.snapshot(id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGeminiDialogueClient_UnknownConversation(t *testing.T) {
	c := NewGeminiDialogueClient("k", "", "http://127.0.0.1:1", 10, zap.NewNop().Sugar())
	_, err := c.SendMessage(context.Background(), "missing", "hi", nil)
	assert.ErrorContains(t, err, "unknown conversation")
}

func TestParseDataURL(t *testing.T) {
	mime, data, err := parseDataURL("data:image/png;base64,QUJD")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "QUJD", data)

	_, _, err = parseDataURL("https://example.com/a.jpg")
	assert.Error(t, err)
}

func newOpenAITestServer(t *testing.T, inputs *[]map[string]any, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		*inputs = append(*inputs, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_1","object":"response","status":"completed","model":"gpt-4o","output":[{"type":"message","id":"msg_1","role":"assistant","status":"completed","content":[{"type":"output_text","text":"` + answer + `","annotations":[]}]}]}`))
	}))
}

func TestResponsesDialogueClient_KeepsImageInHistory(t *testing.T) {
	var bodies []map[string]any
	srv := newOpenAITestServer(t, &bodies, "a rice paddy")
	defer srv.Close()

	oc := openai.NewClient(option.WithBaseURL(srv.URL+"/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	c := NewResponsesDialogueClient(&oc, openai.ChatModelGPT4o, 10, zap.NewNop().Sugar())
	ctx := context.Background()

	id, err := c.CreateConversation(ctx, "you are an agronomist")
	require.NoError(t, err)

	out, err := c.SendMessage(ctx, id, "describe", []string{testImageURL})
	require.NoError(t, err)
	assert.Equal(t, "a rice paddy", out)

	_, err = c.SendMessage(ctx, id, "any pests?", nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	// system + первая реплика с картинкой + ответ + новый вопрос
	input, ok := bodies[1]["input"].([]any)
	require.True(t, ok)
	require.Len(t, input, 4)
	roles := make([]string, 0, len(input))
	for _, item := range input {
		roles = append(roles, item.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestResponsesDialogueClient_NilClient(t *testing.T) {
	c := NewResponsesDialogueClient(nil, openai.ChatModelGPT4o, 10, zap.NewNop().Sugar())
	_, err := c.CreateConversation(context.Background(), "")
	assert.Error(t, err)
}

func TestTextClient_SendRequest(t *testing.T) {
	var bodies []map[string]any
	srv := newOpenAITestServer(t, &bodies, "नमस्ते")
	defer srv.Close()

	oc := openai.NewClient(option.WithBaseURL(srv.URL+"/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	out, err := NewTextClient(&oc, openai.ChatModelGPT4o).SendRequest(context.Background(), "translate: hello", "")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते", out)
	require.Len(t, bodies, 1)
	assert.Equal(t, "gpt-4o", bodies[0]["model"])
}

func TestStubDialogueClient(t *testing.T) {
	c := NewStubDialogueClient()
	ctx := context.Background()

	id, err := c.CreateConversation(ctx, "instr")
	require.NoError(t, err)
	first, err := c.SendMessage(ctx, id, "describe", []string{testImageURL})
	require.NoError(t, err)
	assert.Equal(t, c.Description, first)

	second, err := c.SendMessage(ctx, id, "pests?", nil)
	require.NoError(t, err)
	assert.Contains(t, second, "pests?")

	c.Err = errors.New("down")
	_, err = c.SendMessage(ctx, id, "again", nil)
	assert.Error(t, err)
	assert.Len(t, c.Messages(), 3)
	assert.Equal(t, 1, c.Conversations())
}
