// Package scheduler drives the periodic sanction sweep across every guild the
// bot is in.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// Lifecycle is the part of the sanction service a sweep runs
type Lifecycle interface {
	ReconcileMembers(ctx context.Context, guildID string) (int, error)
	Sweep(ctx context.Context, guildID string) (sanctions.SweepReport, error)
}

// GuildLister returns the guilds to sweep
type GuildLister interface {
	GuildIDs() []string
}

// Sweeper runs a reconcile-then-sweep pass over all guilds on a ticker.
// Guilds are processed concurrently, bounded by concurrency.
type Sweeper struct {
	lifecycle   Lifecycle
	guilds      GuildLister
	interval    time.Duration
	concurrency int
}

// NewSweeper creates a sweeper
func NewSweeper(l Lifecycle, guilds GuildLister, interval time.Duration, concurrency int) *Sweeper {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{lifecycle: l, guilds: guilds, interval: interval, concurrency: concurrency}
}

// Run blocks until ctx is done, sweeping once per interval
func (s *Sweeper) Run(ctx context.Context) {
	logger.System(fmt.Sprintf("Barrido de sanciones cada %s", s.interval), "Sweep")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			logger.System("Barrido de sanciones detenido", "Sweep")
			return
		}
	}
}

// Tick sweeps every guild once. A failing guild does not stop the others.
func (s *Sweeper) Tick(ctx context.Context) []sanctions.SweepReport {
	ids := s.guilds.GuildIDs()
	reports := make([]sanctions.SweepReport, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, guildID := range ids {
		g.Go(func() error {
			defer apperrors.RecoverMiddleware()()
			reports[i] = s.guild(ctx, guildID)
			return nil
		})
	}
	_ = g.Wait()

	due, reversed := 0, 0
	for _, r := range reports {
		due += r.Due
		reversed += r.Outcomes[sanctions.OutcomeReversed] + r.Outcomes[sanctions.OutcomeSubjectGone]
	}
	if due > 0 {
		logger.Info(fmt.Sprintf("Barrido completado: %d guilds, %d vencidas, %d resueltas", len(ids), due, reversed), "Sweep")
	}
	return reports
}

func (s *Sweeper) guild(ctx context.Context, guildID string) sanctions.SweepReport {
	if healed, err := s.lifecycle.ReconcileMembers(ctx, guildID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo actualizar miembros de %s: %v", guildID, err), "Sweep")
	} else if healed > 0 {
		logger.Debug(fmt.Sprintf("%d miembros recibieron el rol de nuevo miembro en %s", healed, guildID), "Sweep")
	}

	report, err := s.lifecycle.Sweep(ctx, guildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("Barrido fallido en %s: %v", guildID, err), "Sweep")
	}
	return report
}
