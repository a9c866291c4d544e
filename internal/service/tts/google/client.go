package google

import (
	"AgroAssistant/internal/config"
	"AgroAssistant/internal/service/tts"
	"context"
	"strings"
	"time"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
)

// synthesizeFunc — вызов SDK, подменяется в тестах.
type synthesizeFunc func(ctx context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error)

// Client реализует синтез речи через Google Cloud Text-to-Speech и отдаёт MP3.
type Client struct {
	cfg        config.GoogleTTSConfig
	synthesize synthesizeFunc
	close      func() error
	logger     *zap.SugaredLogger
}

var _ tts.Synthesizer = (*Client)(nil)

// New создаёт клиента SDK. Учётные данные берутся по ADC (GOOGLE_APPLICATION_CREDENTIALS).
func New(ctx context.Context, cfg config.GoogleTTSConfig, logger *zap.SugaredLogger) (*Client, error) {
	ttsClient, err := gctts.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	synth := func(ctx context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
		return ttsClient.SynthesizeSpeech(ctx, req)
	}
	return &Client{cfg: cfg, synthesize: synth, close: ttsClient.Close, logger: logger}, nil
}

func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Synthesize выполняет запрос к Google TTS и возвращает MP3.
func (c *Client) Synthesize(ctx context.Context, text string, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyText
	}

	req := BuildRequest(c.cfg, text, languageCode)
	started := time.Now()
	resp, err := c.synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Infow("Google TTS synthesize completed",
			"lang", req.GetVoice().GetLanguageCode(),
			"voice", req.GetVoice().GetName(),
			"took", time.Since(started).String(),
		)
	}
	return resp.GetAudioContent(), nil
}

// BuildRequest собирает запрос: голос по языку, только MP3.
func BuildRequest(cfg config.GoogleTTSConfig, text string, languageCode string) *ttspb.SynthesizeSpeechRequest {
	lang := "en-US"
	voiceName := cfg.NativeVoice
	if strings.HasPrefix(strings.ToLower(languageCode), "hi") {
		lang = "hi-IN"
		voiceName = cfg.SecondaryVoice
	}

	return &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: text}},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         voiceName, // поддержка Standard/Wavenet голосов
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_MP3,
			SpeakingRate:  cfg.SpeakingRate,
			Pitch:         cfg.Pitch,
		},
	}
}
