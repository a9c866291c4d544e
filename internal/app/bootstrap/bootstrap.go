package bootstrap

import (
	"AgroAssistant/internal/ai"
	"AgroAssistant/internal/config"
	"AgroAssistant/internal/service/assistant"
	"AgroAssistant/internal/service/image"
	"AgroAssistant/internal/service/state"
	"AgroAssistant/internal/service/translation"
	"AgroAssistant/internal/service/tts"
	ttsgoogle "AgroAssistant/internal/service/tts/google"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// App — собранные сервисы ассистента.
type App struct {
	Dialogue   ai.DialogueClient
	Translator *translation.Translator
	Images     *image.Processor
	Sessions   *state.Manager
	// TTS nil, если озвучка выключена.
	TTS tts.Synthesizer

	closers []func() error
}

// NewLogger создаёт zap логгер: development для консоли и дебага, production для json.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogFormat == "json" && !cfg.DebugMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Build выбирает провайдеров по конфигурации и связывает сервисы.
func Build(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{}

	var oClient *openai.Client
	if cfg.OpenAI.APIKey != "" {
		c := openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey))
		oClient = &c
	}

	switch cfg.GenerationProvider {
	case config.ProviderGemini:
		app.Dialogue = ai.NewGeminiDialogueClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.MaxHistoryRecords, logger)
	case config.ProviderOpenAI:
		app.Dialogue = ai.NewResponsesDialogueClient(oClient, openai.ChatModel(cfg.OpenAI.Model), cfg.MaxHistoryRecords, logger)
	case config.ProviderStub:
		app.Dialogue = ai.NewStubDialogueClient()
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", config.ErrConfiguration, cfg.GenerationProvider)
	}

	var backend translation.Backend
	switch cfg.TranslatorProvider {
	case config.TranslatorMyMemory:
		backend = translation.NewMyMemory(cfg.MyMemory.BaseURL, cfg.MyMemory.Email)
	case config.TranslatorOpenAI:
		backend = translation.NewLLMBackend(ai.NewTextClient(oClient, openai.ChatModel(cfg.OpenAI.Model)))
	case config.TranslatorStub:
		backend = translation.NewStubBackend()
	case config.TranslatorNone:
	default:
		return nil, fmt.Errorf("%w: unknown translator provider %q", config.ErrConfiguration, cfg.TranslatorProvider)
	}
	app.Translator = translation.New(backend, cfg.TranslationChunkSize, cfg.TranslationTimeout, logger)
	app.Images = image.NewProcessor(cfg.ImageMaxWidth, cfg.ImageMaxSizeBytes, cfg.ImageMaxPixels)

	app.Sessions = state.New(func(id string) *assistant.Session {
		return assistant.NewSession(id, assistant.Deps{
			Dialogue:   app.Dialogue,
			Translator: app.Translator,
			Images:     app.Images,
			Timeout:    cfg.GenerationTimeout,
			Logger:     logger,
		})
	})

	if cfg.TTSEnabled {
		client, err := ttsgoogle.New(ctx, cfg.GoogleTTS, logger)
		if err != nil {
			return nil, fmt.Errorf("google tts: %w", err)
		}
		app.TTS = client
		app.closers = append(app.closers, client.Close)
	}

	logger.Infow("Services wired",
		"generation", cfg.GenerationProvider,
		"translator", cfg.TranslatorProvider,
		"tts", cfg.TTSEnabled,
	)
	return app, nil
}

// Close освобождает клиентов SDK.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
