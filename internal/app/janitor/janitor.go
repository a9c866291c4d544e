package janitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Evictor — хранилище сессий, умеющее выселять простаивающую сессию.
type Evictor interface {
	EvictIdle(ttl time.Duration) bool
}

// Janitor периодически закрывает сессию, к которой давно не обращались,
// чтобы не держать в памяти картинку и историю диалога.
type Janitor struct {
	store    Evictor
	ttl      time.Duration
	interval time.Duration
	logger   *zap.SugaredLogger
}

func New(store Evictor, ttl, interval time.Duration, logger *zap.SugaredLogger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{store: store, ttl: ttl, interval: interval, logger: logger}
}

// Run работает до отмены контекста. При ttl <= 0 сразу возвращается: выселение выключено.
// Первая проверка выполняется по истечении первого интервала.
func (j *Janitor) Run(ctx context.Context) error {
	if j.ttl <= 0 {
		j.logger.Infow("Janitor disabled", "ttl", j.ttl.String())
		return nil
	}
	j.logger.Infow("Janitor started", "interval", j.interval.String(), "ttl", j.ttl.String())

	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-t.C:
			if j.store.EvictIdle(j.ttl) {
				j.logger.Infow("Idle session evicted", "ttl", j.ttl.String())
			}
		}
	}
}
