package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// GenerationRequestsTotal — запросы к модели по операции (describe|ask) и результату (ok|error).
	GenerationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agro",
		Subsystem: "assistant",
		Name:      "generation_requests_total",
		Help:      "Total number of requests to the generation backend, labeled by operation and result.",
	}, []string{"op", "result"})

	// GenerationDurationSeconds — длительность одного запроса к модели.
	GenerationDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agro",
		Subsystem: "assistant",
		Name:      "generation_duration_seconds",
		Help:      "Time spent waiting for the generation backend.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"op"})

	// TranslationsTotal — вызовы переводчика по результату (ok|fallback|skipped).
	TranslationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agro",
		Subsystem: "translation",
		Name:      "requests_total",
		Help:      "Total number of translate calls, labeled by result.",
	}, []string{"result"})

	// TranslationChunksTotal — сколько кусков текста отправлено в бэкенд перевода.
	TranslationChunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agro",
		Subsystem: "translation",
		Name:      "chunks_total",
		Help:      "Total number of text chunks sent to the translation backend.",
	})

	// SessionsStartedTotal — сколько сессий создано загрузками картинок.
	SessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agro",
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Total number of conversation sessions started by image uploads.",
	})

	// HTTPRequestsTotal — запросы к HTTP API по маршруту и коду ответа.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agro",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by route and status code.",
	}, []string{"route", "status"})

	// SessionActive — 1, если есть активная сессия.
	SessionActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agro",
		Subsystem: "session",
		Name:      "active",
		Help:      "Whether a conversation session is currently active.",
	})
)

// Register регистрирует метрики в реестре Prometheus по умолчанию. Повторные вызовы безопасны.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			GenerationRequestsTotal,
			GenerationDurationSeconds,
			TranslationsTotal,
			TranslationChunksTotal,
			SessionsStartedTotal,
			SessionActive,
			HTTPRequestsTotal,
		)
	})
}
