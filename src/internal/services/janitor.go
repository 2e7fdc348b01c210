package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/logging"
)

// GarbageCollector reclaims space from expired entries and reports how many
// passes did work.
type GarbageCollector interface {
	CollectGarbage() (int, error)
}

// Janitor periodically compacts the session store so expired result lists
// stop taking disk space. It runs as a supervised service.
type Janitor struct {
	gc       GarbageCollector
	interval time.Duration
	log      zerolog.Logger
}

func NewJanitor(gc GarbageCollector, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{gc: gc, interval: interval, log: logging.WithComponent("janitor")}
}

func (j *Janitor) Serve(ctx context.Context) error {
	j.log.Info().Dur("interval", j.interval).Msg("starting session janitor")
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	passes, err := j.gc.CollectGarbage()
	if err != nil {
		j.log.Error().Err(err).Msg("value log gc failed")
		return
	}
	if passes > 0 {
		j.log.Debug().Int("passes", passes).Msg("value log compacted")
	}
}

func (j *Janitor) String() string { return "session-janitor" }
