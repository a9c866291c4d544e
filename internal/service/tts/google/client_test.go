package google

import (
	"AgroAssistant/internal/config"
	"AgroAssistant/internal/service/tts"
	"context"
	"errors"
	"testing"

	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildRequest_VoiceByLanguage(t *testing.T) {
	cfg := config.Defaults().GoogleTTS

	req := BuildRequest(cfg, "नमस्ते", "hi-IN")
	assert.Equal(t, "hi-IN", req.GetVoice().GetLanguageCode())
	assert.Equal(t, cfg.SecondaryVoice, req.GetVoice().GetName())
	assert.Equal(t, ttspb.AudioEncoding_MP3, req.GetAudioConfig().GetAudioEncoding())

	req = BuildRequest(cfg, "hello", "")
	assert.Equal(t, "en-US", req.GetVoice().GetLanguageCode())
	assert.Equal(t, cfg.NativeVoice, req.GetVoice().GetName())
	assert.Equal(t, "hello", req.GetInput().GetText())
}

func TestClient_Synthesize(t *testing.T) {
	var got *ttspb.SynthesizeSpeechRequest
	c := &Client{
		cfg: config.Defaults().GoogleTTS,
		synthesize: func(_ context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
			got = req
			return &ttspb.SynthesizeSpeechResponse{AudioContent: []byte("ID3")}, nil
		},
		logger: zap.NewNop().Sugar(),
	}

	audio, err := c.Synthesize(context.Background(), "wheat rust", "en-US")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
	require.NotNil(t, got)
	assert.Equal(t, "wheat rust", got.GetInput().GetText())

	_, err = c.Synthesize(context.Background(), "  ", "en-US")
	assert.ErrorIs(t, err, tts.ErrEmptyText)

	c.synthesize = func(context.Context, *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
		return nil, errors.New("permission denied")
	}
	_, err = c.Synthesize(context.Background(), "hi", "en-US")
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}
