package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrConfiguration — ошибка конфигурации, при которой сервис не должен стартовать.
var ErrConfiguration = errors.New("configuration error")

// Провайдеры генерации ответов.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

// Провайдеры перевода.
const (
	TranslatorMyMemory = "mymemory"
	TranslatorOpenAI   = "openai"
	TranslatorStub     = "stub"
	TranslatorNone     = "none"
)

type Config struct {
	DebugMode bool   `env:"DEBUG_MODE"` // Режим дебага
	LogFormat string `env:"LOG_FORMAT"` // console|json
	BindAddr  string `env:"BIND_ADDR"`  // Адрес HTTP сервера, напр. 127.0.0.1:5001
	// Разрешённые Origin для CORS и websocket; "*" — любые
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	// Генерация ответов
	GenerationProvider string        `env:"GENERATION_PROVIDER"` // gemini|openai|stub
	GenerationTimeout  time.Duration `env:"GENERATION_TIMEOUT"`  // Таймаут одного запроса к модели
	MaxHistoryRecords  int           `env:"MAX_HISTORY_RECORDS"` // Сколько последних реплик держать в контексте (первая реплика с картинкой закреплена)
	Gemini             GeminiConfig
	OpenAI             OpenAIConfig

	// Перевод
	TranslatorProvider   string        `env:"TRANSLATOR_PROVIDER"`    // mymemory|openai|stub|none
	TranslationTimeout   time.Duration `env:"TRANSLATION_TIMEOUT"`    // Таймаут одного запроса перевода
	TranslationChunkSize int           `env:"TRANSLATION_CHUNK_SIZE"` // Максимальная длина куска текста в символах
	MyMemory             MyMemoryConfig

	// Изображения
	ImageMaxWidth       int   `env:"IMAGE_MAX_WIDTH"`        // Картинки шире уменьшаются до этой ширины
	ImageMaxSizeBytes   int   `env:"IMAGE_MAX_SIZE_BYTES"`   // Предел размера перекодированного JPEG
	ImageMaxPixels      int   `env:"IMAGE_MAX_PIXELS"`       // Предел ширина*высота исходной картинки
	ImageMaxUploadBytes int64 `env:"IMAGE_MAX_UPLOAD_BYTES"` // Предел тела запроса /process-image

	// Сессия
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL"` // 0 — сессия живёт до следующей загрузки
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL"`

	// Озвучка ответов
	TTSEnabled bool `env:"TTS_ENABLED"`
	GoogleTTS  GoogleTTSConfig
}

// GeminiConfig конфигурация Gemini generateContent API.
type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	Model   string `env:"GEMINI_MODEL"`
	BaseURL string `env:"GEMINI_BASE_URL"`
}

// OpenAIConfig конфигурация OpenAI Responses API.
type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY"`
	Model  string `env:"OPENAI_MODEL"`
}

// MyMemoryConfig конфигурация бесплатного API перевода MyMemory.
type MyMemoryConfig struct {
	BaseURL string `env:"MYMEMORY_BASE_URL"`
	// Email повышает дневной лимит бесплатного API
	Email string `env:"MYMEMORY_EMAIL"`
}

// GoogleTTSConfig конфигурация для синтеза речи через Google Cloud Text-to-Speech.
type GoogleTTSConfig struct {
	// Путь к файлу ключа сервисного аккаунта. Фактически читается из ENV GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsPath string  `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	NativeVoice     string  `env:"GOOGLE_TTS_VOICE_EN"`
	SecondaryVoice  string  `env:"GOOGLE_TTS_VOICE_HI"`
	SpeakingRate    float64 `env:"GOOGLE_TTS_SPEAKING_RATE"`
	Pitch           float64 `env:"GOOGLE_TTS_PITCH"`
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:            false,
		LogFormat:            "console",
		BindAddr:             "127.0.0.1:5001",
		AllowedOrigins:       "*",
		GenerationProvider:   ProviderGemini,
		GenerationTimeout:    60 * time.Second,
		MaxHistoryRecords:    20,
		TranslatorProvider:   TranslatorMyMemory,
		TranslationTimeout:   15 * time.Second,
		TranslationChunkSize: 450,
		ImageMaxWidth:        1280,
		ImageMaxSizeBytes:    1 * 1024 * 1024,
		ImageMaxPixels:       40_000_000,
		ImageMaxUploadBytes:  20 * 1024 * 1024,
		SessionIdleTTL:       0,
		JanitorInterval:      time.Minute,
		TTSEnabled:           false,
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		MyMemory: MyMemoryConfig{
			BaseURL: "https://api.mymemory.translated.net",
		},
		GoogleTTS: GoogleTTSConfig{
			NativeVoice:    "en-US-Standard-C",
			SecondaryVoice: "hi-IN-Standard-A",
			SpeakingRate:   0.95, // как в голосовом режиме веб-клиента
			Pitch:          0.0,
		},
	}
}

// NewConfig загружает конфигурацию приложения: дефолты, .env, окружение, флаги командной строки.
func NewConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load — то же, что NewConfig, но с явным набором флагов (удобно в тестах).
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "формат логов: console|json")
	fs.StringVar(&cfg.BindAddr, "bind-addr", cfg.BindAddr, "адрес HTTP сервера (напр. 127.0.0.1:5001)")
	fs.StringVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "разрешённые Origin для CORS")
	fs.StringVar(&cfg.GenerationProvider, "generation-provider", cfg.GenerationProvider, "провайдер генерации: gemini|openai|stub")
	fs.DurationVar(&cfg.GenerationTimeout, "generation-timeout", cfg.GenerationTimeout, "таймаут запроса к модели, напр. 60s")
	fs.IntVar(&cfg.MaxHistoryRecords, "max-history-records", cfg.MaxHistoryRecords, "максимум реплик в контексте диалога")
	fs.StringVar(&cfg.Gemini.Model, "gemini-model", cfg.Gemini.Model, "модель Gemini")
	fs.StringVar(&cfg.OpenAI.Model, "openai-model", cfg.OpenAI.Model, "модель OpenAI")
	fs.StringVar(&cfg.TranslatorProvider, "translator-provider", cfg.TranslatorProvider, "провайдер перевода: mymemory|openai|stub|none")
	fs.DurationVar(&cfg.TranslationTimeout, "translation-timeout", cfg.TranslationTimeout, "таймаут запроса перевода, напр. 15s")
	fs.IntVar(&cfg.TranslationChunkSize, "translation-chunk-size", cfg.TranslationChunkSize, "максимальная длина куска текста для перевода")
	fs.IntVar(&cfg.ImageMaxWidth, "image-max-width", cfg.ImageMaxWidth, "максимальная ширина картинки перед отправкой в модель")
	fs.IntVar(&cfg.ImageMaxPixels, "image-max-pixels", cfg.ImageMaxPixels, "максимум пикселей (ширина*высота) во входной картинке")
	fs.Int64Var(&cfg.ImageMaxUploadBytes, "image-max-upload-bytes", cfg.ImageMaxUploadBytes, "максимальный размер тела запроса с картинкой")
	fs.DurationVar(&cfg.SessionIdleTTL, "session-idle-ttl", cfg.SessionIdleTTL, "время простоя, после которого сессия удаляется (0 — никогда)")
	fs.BoolVar(&cfg.TTSEnabled, "tts-enabled", cfg.TTSEnabled, "включить озвучку ответов через Google TTS")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	cfg.GenerationProvider = strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	cfg.TranslatorProvider = strings.ToLower(strings.TrimSpace(cfg.TranslatorProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv перекрывает значения из .env (если файл есть) и переменных окружения. Без валидации.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// Validate проверяет обязательные параметры. Без ключа выбранного провайдера генерации сервис не стартует.
func (c *Config) Validate() error {
	switch c.GenerationProvider {
	case ProviderGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrConfiguration)
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrConfiguration)
		}
	case ProviderStub:
	default:
		return fmt.Errorf("%w: unknown generation provider %q", ErrConfiguration, c.GenerationProvider)
	}

	switch c.TranslatorProvider {
	case TranslatorMyMemory, TranslatorStub, TranslatorNone:
	case TranslatorOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return fmt.Errorf("%w: translator %q requires OPENAI_API_KEY", ErrConfiguration, c.TranslatorProvider)
		}
	default:
		return fmt.Errorf("%w: unknown translator provider %q", ErrConfiguration, c.TranslatorProvider)
	}

	if c.TranslationChunkSize <= 0 {
		return fmt.Errorf("%w: TRANSLATION_CHUNK_SIZE must be positive", ErrConfiguration)
	}

	// Для Google TTS нужен файл ключа: если ENV пуст, но в конфиге указан путь — выставляем ENV.
	if c.TTSEnabled {
		cred := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if cred == "" {
			if cp := strings.TrimSpace(c.GoogleTTS.CredentialsPath); cp != "" {
				_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cp)
				cred = cp
			}
		}
		if cred == "" {
			return fmt.Errorf("%w: google tts: GOOGLE_APPLICATION_CREDENTIALS is not set", ErrConfiguration)
		}
		if _, err := os.Stat(cred); err != nil {
			return fmt.Errorf("%w: google tts: credentials file not found: %s", ErrConfiguration, cred)
		}
	}
	return nil
}
