package assistant

import (
	"AgroAssistant/internal/ai"
	"AgroAssistant/internal/service/image"
	"AgroAssistant/internal/service/translation"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	goimage "image"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func jpegPayload(t *testing.T) string {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := range 10 {
			img.Set(x, y, color.RGBA{G: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	dialogue *ai.StubDialogueClient
	backend  *translation.StubBackend
	session  *Session
}

func newFixture(t *testing.T, localeHint string) *fixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	f := &fixture{
		dialogue: ai.NewStubDialogueClient(),
		backend:  translation.NewStubBackend(),
	}
	f.session = NewSession("s-1", Deps{
		Dialogue:   f.dialogue,
		Translator: translation.New(f.backend, translation.DefaultChunkSize, time.Second, logger),
		Images:     image.NewProcessor(0, 0, 0),
		Timeout:    time.Second,
		Logger:     logger,
	})
	f.session.SetLanguage(localeHint)
	return f
}

func TestSession_EnglishConversation(t *testing.T) {
	f := newFixture(t, "en")
	ctx := context.Background()

	description := f.session.ProcessImage(ctx, jpegPayload(t))
	assert.Equal(t, f.dialogue.Description, description)
	assert.True(t, f.session.Started())

	answer, err := f.session.GenerateResponse(ctx, "What pests are visible?")
	require.NoError(t, err)
	assert.Equal(t, "Answer about the same image: What pests are visible?", answer)

	msgs := f.dialogue.Messages()
	require.Len(t, msgs, 2)
	assert.Len(t, msgs[0].ImageURLs, 1, "image is attached to the first message")
	assert.Equal(t, msgs[0].ConversationID, msgs[1].ConversationID, "follow-up uses the same context")
	assert.Empty(t, f.backend.Calls(), "english session never calls the translator")
}

func TestSession_HindiRoundTrip(t *testing.T) {
	f := newFixture(t, "hi-IN")
	ctx := context.Background()
	require.Equal(t, LanguageSecondary, f.session.Language())

	description := f.session.ProcessImage(ctx, jpegPayload(t))
	assert.Equal(t, "[hi] "+f.dialogue.Description, description)

	answer, err := f.session.GenerateResponse(ctx, "कौन से कीट दिखाई दे रहे हैं?")
	require.NoError(t, err)
	assert.Equal(t, "[hi] Answer about the same image: What pests are visible?", answer)

	msgs := f.dialogue.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "What pests are visible?", msgs[1].Text, "model receives the english question")
}

func TestSession_ProcessImage_InvalidPayload(t *testing.T) {
	f := newFixture(t, "hi")
	truncated := jpegPayload(t)[:12]

	out := f.session.ProcessImage(context.Background(), truncated)
	assert.Equal(t, "छवि संसाधित करने में त्रुटि", out)
	assert.False(t, f.session.Started())
	assert.Empty(t, f.dialogue.Messages())
}

func TestSession_ProcessImage_GenerationFailureDegrades(t *testing.T) {
	f := newFixture(t, "en")
	f.dialogue.Err = errors.New("quota exceeded")

	out := f.session.ProcessImage(context.Background(), jpegPayload(t))
	assert.Equal(t, msgImageError, out)
	assert.False(t, f.session.Started())
}

func TestSession_NotStarted(t *testing.T) {
	f := newFixture(t, "")

	out, err := f.session.GenerateResponse(context.Background(), "hello?")
	require.NoError(t, err)
	assert.Equal(t, msgNotStarted, out)
	assert.Empty(t, f.dialogue.Messages())
}

func TestSession_StopKeyword(t *testing.T) {
	for _, tc := range []struct {
		locale   string
		question string
		want     string
	}{
		{"en", "Please STOP now", msgFarewell},
		{"hi-IN", "अब रुक जाओ", "सत्र समाप्त। कृषि सहायक का उपयोग करने के लिए धन्यवाद।"},
	} {
		t.Run(tc.locale, func(t *testing.T) {
			f := newFixture(t, tc.locale)
			ctx := context.Background()
			f.session.ProcessImage(ctx, jpegPayload(t))

			out, err := f.session.GenerateResponse(ctx, tc.question)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
			assert.Len(t, f.dialogue.Messages(), 1, "stop does not reach the model")

			// сессия продолжает работать
			_, err = f.session.GenerateResponse(ctx, "and the soil?")
			require.NoError(t, err)
			assert.Len(t, f.dialogue.Messages(), 2)
		})
	}
}

func TestSession_GenerationErrorPropagates(t *testing.T) {
	f := newFixture(t, "en")
	ctx := context.Background()
	f.session.ProcessImage(ctx, jpegPayload(t))

	cause := errors.New("backend down")
	f.dialogue.Err = cause
	_, err := f.session.GenerateResponse(ctx, "What pests are visible?")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "ask", genErr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestSession_Retired(t *testing.T) {
	f := newFixture(t, "en")
	ctx := context.Background()
	f.session.ProcessImage(ctx, jpegPayload(t))

	f.session.Retire()
	f.session.Retire()

	_, err := f.session.GenerateResponse(ctx, "still there?")
	assert.ErrorIs(t, err, ErrSessionReplaced)
	assert.True(t, f.session.Retired())
	assert.Len(t, f.dialogue.Messages(), 1)
}

// slowDialogue считает одновременные вызовы и умеет зависать до отмены контекста.
type slowDialogue struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	hang     bool
	calls    atomic.Int32
}

func (d *slowDialogue) CreateConversation(context.Context, string) (string, error) {
	return "conv", nil
}

func (d *slowDialogue) SendMessage(ctx context.Context, _ string, text string, _ []string) (string, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		m := d.maxSeen.Load()
		if n <= m || d.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if d.calls.Add(1) > 1 && d.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	time.Sleep(d.delay)
	return "re: " + text, nil
}

func newSlowSession(d *slowDialogue, timeout time.Duration) *Session {
	s := NewSession("slow", Deps{
		Dialogue: d,
		Images:   image.NewProcessor(0, 0, 0),
		Timeout:  timeout,
		Logger:   zap.NewNop().Sugar(),
	})
	s.SetLanguage("en")
	return s
}

func TestSession_SerializesGenerationCalls(t *testing.T) {
	d := &slowDialogue{delay: 5 * time.Millisecond}
	s := newSlowSession(d, time.Second)
	ctx := context.Background()
	s.ProcessImage(ctx, jpegPayload(t))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GenerateResponse(ctx, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), d.maxSeen.Load())
	assert.Equal(t, int32(9), d.calls.Load())
}

func TestSession_LastUsedCoversWholeCall(t *testing.T) {
	d := &slowDialogue{delay: 30 * time.Millisecond}
	s := newSlowSession(d, time.Second)
	ctx := context.Background()
	s.ProcessImage(ctx, jpegPayload(t))

	before := time.Now()
	_, err := s.GenerateResponse(ctx, "how much water?")
	require.NoError(t, err)
	// отметка ставится после ответа модели, а не только при входе
	assert.GreaterOrEqual(t, s.LastUsed().Sub(before), 30*time.Millisecond)
}

func TestSession_GenerationTimeout(t *testing.T) {
	d := &slowDialogue{hang: true}
	s := newSlowSession(d, 20*time.Millisecond)
	ctx := context.Background()
	require.Equal(t, "re: "+describePrompt, s.ProcessImage(ctx, jpegPayload(t)))

	_, err := s.GenerateResponse(ctx, "are you there?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
