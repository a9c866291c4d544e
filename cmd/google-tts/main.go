package main

import (
	"AgroAssistant/internal/config"
	ttsgoogle "AgroAssistant/internal/service/tts/google"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
)

// Небольшая утилита для настройки озвучки.
// Без -text печатает голоса Google TTS для en-US и hi-IN, с -text пишет MP3 в -out.
func main() {
	fs := flag.NewFlagSet("google-tts", flag.ExitOnError)
	text := fs.String("text", "", "текст для озвучки; пусто — вывести список голосов")
	lang := fs.String("lang", "en-US", "язык озвучки (en-US|hi-IN)")
	out := fs.String("out", "speech.mp3", "куда записать MP3")
	_ = fs.Parse(os.Args[1:])

	cfg := config.Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Println("не удалось прочитать конфигурацию:", err)
		os.Exit(1)
	}

	// Установим GOOGLE_APPLICATION_CREDENTIALS из конфига, если не задано в окружении.
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && cfg.GoogleTTS.CredentialsPath != "" {
		_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.GoogleTTS.CredentialsPath)
	}

	ctx, cancel := context.WithTimeoutCause(context.Background(), 30*time.Second, errors.New("google tts request timeout"))
	defer cancel()

	if *text == "" {
		if err := listVoices(ctx, "en-US", "hi-IN"); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := ttsgoogle.New(ctx, cfg.GoogleTTS, logger.Sugar())
	if err != nil {
		fmt.Println("не удалось создать клиента Google TTS:", err)
		os.Exit(1)
	}
	defer client.Close()

	audio, err := client.Synthesize(ctx, *text, *lang)
	if err != nil {
		fmt.Println("ошибка синтеза:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, audio, 0o644); err != nil {
		fmt.Println("не удалось записать файл:", err)
		os.Exit(1)
	}
	fmt.Printf("записано %d байт в %s\n", len(audio), *out)
}

// listVoices делает GET к Google TTS Voices REST API и печатает голоса по каждому языку.
func listVoices(ctx context.Context, langs ...string) error {
	// Получим учётные данные по ADC и токен для вызова REST API.
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return fmt.Errorf("не удалось найти учётные данные Google (ADC): %w", err)
	}
	tok, err := creds.TokenSource.Token()
	if err != nil {
		return fmt.Errorf("не удалось получить токен доступа Google: %w", err)
	}

	client := resty.New().
		SetBaseURL("https://texttospeech.googleapis.com/v1").
		SetAuthToken(tok.AccessToken).
		SetTimeout(20 * time.Second)

	for _, lang := range langs {
		var payload struct {
			Voices []any `json:"voices"`
		}
		resp, err := client.R().
			SetContext(ctx).
			SetQueryParam("languageCode", lang).
			SetResult(&payload).
			Get("/voices")
		if err != nil {
			return fmt.Errorf("ошибка при выполнении запроса: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("Google TTS Voices: status=%d, body=%s", resp.StatusCode(), resp.String())
		}

		b, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Printf("%s:\n%s\n", lang, string(b))
	}
	return nil
}
