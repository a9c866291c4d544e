package ai

import "context"

// DialogueClient описывает клиент с контекстом диалога: разговор создаётся один раз и далее
// в него отправляются сообщения. Модель видит всю предыдущую переписку, включая первую картинку.
type DialogueClient interface {
	// CreateConversation создаёт новый диалог с начальными инструкциями ассистента ("кто ты такой").
	// Возвращает идентификатор диалога, который нужно использовать далее.
	CreateConversation(ctx context.Context, instructions string) (string, error)

	// SendMessage отправляет сообщение пользователя в диалог с опциональными изображениями (как data URL).
	// Возвращает текст ответа ассистента.
	SendMessage(ctx context.Context, conversationID string, text string, imageURLs []string) (string, error)
}
