// Package sanctions manages the lifecycle of timed sanctions: issuing them,
// counting warnings against the ceiling, reversing them when they expire or
// are lifted, and reporting every transition.
package sanctions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/duration"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/membership"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Deps are the collaborators of a Service. Store, Platform and Configs are
// required; the rest have in-memory or no-op defaults.
type Deps struct {
	Store    Store
	Platform Platform
	Configs  ConfigSource
	History  History
	Snapshot membership.Snapshot
	Events   Publisher
	Metrics  *metrics.Metrics

	// SweepConcurrency bounds how many subjects one sweep works on at once.
	SweepConcurrency int
	// FastPathHorizon bounds how far ahead in-process timers are armed.
	FastPathHorizon time.Duration

	Now   func() time.Time
	NewID func() string
}

// Service bundles the lifecycle components around one store
type Service struct {
	*Issuer
	*Reconciler
	*Guard
	Sink   *LogSink
	Timers *Timers
}

// New wires a Service from deps
func New(d Deps) *Service {
	if d.History == nil {
		d.History = &MemHistory{}
	}
	if d.Snapshot == nil {
		d.Snapshot = membership.NewMemSnapshot(1000, 10*time.Minute)
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Discard()
	}
	if d.SweepConcurrency <= 0 {
		d.SweepConcurrency = 4
	}
	if d.FastPathHorizon <= 0 {
		d.FastPathHorizon = 6 * time.Hour
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}

	lc := &lifecycle{
		store:    d.Store,
		platform: d.Platform,
		configs:  d.Configs,
		history:  d.History,
		snapshot: d.Snapshot,
		events:   d.Events,
		metrics:  d.Metrics,
		sink:     NewLogSink(d.Platform, d.Metrics),
		now:      d.Now,
		newID:    d.NewID,
	}

	guard := NewGuard(d.Store, d.Configs)
	rec := &Reconciler{lifecycle: lc, concurrency: d.SweepConcurrency}
	lc.timers = NewTimers(d.FastPathHorizon, d.Now, rec.ResolveDue)
	iss := &Issuer{lifecycle: lc, guard: guard, locks: newKeyedMutex()}

	return &Service{
		Issuer:     iss,
		Reconciler: rec,
		Guard:      guard,
		Sink:       lc.sink,
		Timers:     lc.timers,
	}
}

// Close stops the fast-path timers
func (s *Service) Close() {
	s.Timers.Stop()
}

// lifecycle is the state shared by the issuer and the reconciler
type lifecycle struct {
	store    Store
	platform Platform
	configs  ConfigSource
	history  History
	snapshot membership.Snapshot
	events   Publisher
	metrics  *metrics.Metrics
	sink     *LogSink
	timers   *Timers
	now      func() time.Time
	newID    func() string
}

// reverse undoes the platform effect of s. It is idempotent.
func (lc *lifecycle) reverse(ctx context.Context, s *models.Sanction) error {
	var err error
	switch s.Kind {
	case models.KindMute:
		if s.RoleID != "" {
			err = lc.platform.RemoveRole(ctx, s.GuildID, s.SubjectID, s.RoleID)
		}
	case models.KindBan:
		err = lc.platform.Unban(ctx, s.GuildID, s.SubjectID)
	}
	if err != nil {
		return transient("reverse "+string(s.Kind), err)
	}
	return nil
}

// resolution describes how a sanction left the store
type resolution struct {
	event    models.HistoryEvent
	actorID  string
	notice   Template
	audit    Template
	outcome  string
	announce bool
}

var (
	resolvedExpired = resolution{event: models.EventExpired, notice: TmplExpiredNotice, audit: TmplExpiredAudit, outcome: "expired", announce: true}
	resolvedGone    = resolution{event: models.EventSubjectGone, outcome: "subject_gone"}
)

func resolvedLifted(actorID string) resolution {
	return resolution{event: models.EventLifted, actorID: actorID, notice: TmplLiftedNotice, audit: TmplLiftedAudit, outcome: "lifted", announce: true}
}

// finish deletes the row and, only if this call deleted it, records and
// announces the transition. It reports whether the row was deleted here.
func (lc *lifecycle) finish(ctx context.Context, cfg config.GuildSanctionConfig, s *models.Sanction, r resolution) (bool, error) {
	deleted, err := lc.store.Delete(ctx, s.ID)
	if err != nil {
		return false, transient("delete sanction", err)
	}
	lc.timers.Cancel(s.ID)
	if !deleted {
		return false, nil
	}

	lc.metrics.SanctionsResolved.WithLabelValues(string(s.Kind), r.outcome).Inc()
	lc.record(ctx, r.event, s, r.actorID)

	if r.announce {
		vars := lc.vars(ctx, s)
		if r.actorID != "" {
			vars["moderator"] = r.actorID
		}
		if cfg.NotifySubject {
			lc.sink.Notify(ctx, s.SubjectID, r.notice, vars)
		}
		lc.sink.Audit(ctx, s.GuildID, cfg.AuditChannel(s.Kind), r.audit, vars)
	}
	return true, nil
}

// record appends history and publishes the event. Both are best effort.
func (lc *lifecycle) record(ctx context.Context, event models.HistoryEvent, s *models.Sanction, actorID string) {
	at := lc.now()
	entry := models.SanctionHistoryEntry{
		ID:         lc.newID(),
		SanctionID: s.ID,
		Event:      event,
		GuildID:    s.GuildID,
		SubjectID:  s.SubjectID,
		ActorID:    actorID,
		Kind:       s.Kind,
		Reason:     s.Reason,
		ExpiresAt:  s.ExpiresAt,
		RecordedAt: at,
	}
	if err := lc.history.Append(ctx, entry); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo guardar el historial de %s (%s): %v", s.ID, event, err), "Sanctions")
	}
	if err := lc.events.Publish(ctx, Event{Name: event, Sanction: *s, ActorID: actorID, At: at}); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el evento de %s (%s): %v", s.ID, event, err), "Sanctions")
	}
}

func (lc *lifecycle) vars(ctx context.Context, s *models.Sanction) Vars {
	return Vars{
		"id":        s.ID,
		"kind":      s.Kind.Label(),
		"guild":     lc.platform.GuildName(ctx, s.GuildID),
		"subject":   s.SubjectID,
		"moderator": s.ModeratorID,
		"reason":    s.Reason,
		"duration":  duration.Format(s.ExpiresAt.Sub(s.IssuedAt)),
		"expires":   strconv.FormatInt(s.ExpiresAt.Unix(), 10),
	}
}

// isGone reports whether err says the subject left Discord or the guild
func isGone(err error) bool {
	return errors.Is(err, ErrSubjectGone)
}
