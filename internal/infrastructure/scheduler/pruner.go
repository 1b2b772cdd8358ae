package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

const pruneTimeout = 30 * time.Second

// Pruner periodically deletes refresh token records past their expiry.
// Tokens are never rotated; pruning only reclaims storage.
type Pruner struct {
	store    ports.RefreshTokenPruner
	schedule cron.Schedule
	cron     *cron.Cron
	pruned   prometheus.Counter
	now      func() time.Time
	log      zerolog.Logger
}

// NewPruner validates schedule (standard five-field cron or a descriptor
// such as "@hourly" / "@every 6h"). pruned may be nil.
func NewPruner(store ports.RefreshTokenPruner, schedule string, pruned prometheus.Counter, log zerolog.Logger) (*Pruner, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, fmt.Errorf("prune schedule is required")
	}
	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return &Pruner{
		store:    store,
		schedule: spec,
		cron:     cron.New(),
		pruned:   pruned,
		now:      time.Now,
		log:      log,
	}, nil
}

// RunOnce deletes every record that expired before now.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	n, err := p.store.DeleteExpired(ctx, p.now().UTC())
	if err != nil {
		return 0, err
	}
	if p.pruned != nil {
		p.pruned.Add(float64(n))
	}
	if n > 0 {
		p.log.Info().Int64("deleted", n).Msg("expired refresh tokens pruned")
	}
	return n, nil
}

func (p *Pruner) Start(ctx context.Context) {
	p.cron.Schedule(p.schedule, cron.FuncJob(func() {
		if _, err := p.RunOnce(ctx); err != nil {
			p.log.Error().Err(err).Msg("refresh token prune failed")
		}
	}))
	p.cron.Start()
}

// Stop halts scheduling and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// Next reports when the next prune is due after t.
func (p *Pruner) Next(t time.Time) time.Time {
	return p.schedule.Next(t)
}
