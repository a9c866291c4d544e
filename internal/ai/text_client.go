package ai

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
)

// TextClient отправляет только текст в OpenAI (используется переводчиком)
type TextClient struct {
	client *openai.Client
	model  openai.ChatModel
}

func NewTextClient(client *openai.Client, model openai.ChatModel) *TextClient {
	return &TextClient{
		client: client,
		model:  model,
	}
}

func (c *TextClient) SendRequest(ctx context.Context, text string, _ string) (string, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						{
							OfInputText: &responses.ResponseInputTextParam{
								Text: text,
							},
						},
					},
					responses.EasyInputMessageRoleUser,
				),
			},
		},
	})
	if err != nil {
		return "", err
	}

	return resp.OutputText(), nil
}
