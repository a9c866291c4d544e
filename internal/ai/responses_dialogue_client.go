package ai

import (
	"AgroAssistant/internal/adapter/localconversation"
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.uber.org/zap"
)

// ResponsesDialogueClient реализует интерфейс DialogueClient поверх Responses API,
// поддерживая разговоры локально (conversationID -> история сообщений + инструкции).
type ResponsesDialogueClient struct {
	client *openai.Client
	model  openai.ChatModel
	logger *zap.SugaredLogger

	*conversations
}

func NewResponsesDialogueClient(client *openai.Client, model openai.ChatModel, maxRecords int, logger *zap.SugaredLogger) *ResponsesDialogueClient {
	return &ResponsesDialogueClient{
		client:        client,
		model:         model,
		logger:        logger,
		conversations: newConversations(maxRecords),
	}
}

func (c *ResponsesDialogueClient) CreateConversation(_ context.Context, instructions string) (string, error) {
	if c.client == nil {
		return "", errors.New("nil openai client")
	}
	return c.create(instructions), nil
}

func (c *ResponsesDialogueClient) SendMessage(ctx context.Context, conversationID string, text string, imageURLs []string) (string, error) {
	if c.client == nil {
		return "", errors.New("nil openai client")
	}
	instructions, history, err := c.snapshot(conversationID)
	if err != nil {
		return "", err
	}

	current := localconversation.Turn{Role: localconversation.RoleUser, Text: text, ImageURLs: imageURLs}

	// Собираем вход: system + история (первая реплика с картинкой всегда на месте) + текущее user сообщение.
	inputItems := make(responses.ResponseInputParam, 0, len(history)+2)
	if instructions != "" {
		inputItems = append(inputItems, responses.ResponseInputItemParamOfMessage(
			responses.ResponseInputMessageContentListParam{
				{OfInputText: &responses.ResponseInputTextParam{Text: instructions}},
			},
			responses.EasyInputMessageRoleSystem,
		))
	}
	for _, t := range history {
		inputItems = append(inputItems, turnToInputItem(t))
	}
	inputItems = append(inputItems, turnToInputItem(current))

	start := time.Now()
	c.logger.Debugw("Запрос в OpenAI...", "conversation", conversationID, "items", len(inputItems))
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: inputItems},
	})
	if err != nil {
		c.logger.Errorw("Ошибка ответа OpenAI", "duration", time.Since(start).String(), "error", err)
		return "", err
	}
	c.logger.Infow("Ответ OpenAI получен", "duration", time.Since(start).String())

	out := resp.OutputText()
	c.record(conversationID, current, localconversation.Turn{Text: out})
	return out, nil
}

func turnToInputItem(t localconversation.Turn) responses.ResponseInputItemUnionParam {
	if t.Role == localconversation.RoleAssistant {
		return responses.ResponseInputItemParamOfMessage(t.Text, responses.EasyInputMessageRoleAssistant)
	}

	// Пользовательский ввод: текст + изображения (как data URL/URL).
	content := make(responses.ResponseInputMessageContentListParam, 0, len(t.ImageURLs)+1)
	content = append(content, responses.ResponseInputContentParamOfInputText(t.Text))
	for _, u := range t.ImageURLs {
		imageParam := responses.ResponseInputContentParamOfInputImage(responses.ResponseInputImageDetailAuto)
		imageParam.OfInputImage.ImageURL = openai.String(u)
		content = append(content, imageParam)
	}
	return responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser)
}
