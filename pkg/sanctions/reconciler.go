package sanctions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/membership"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Outcome is what one sweep did with one sanction
type Outcome string

const (
	OutcomeReversed    Outcome = "reversed"
	OutcomeSubjectGone Outcome = "subject_gone"
	OutcomeFailed      Outcome = "failed"
	// OutcomeSkipped means another path (a lift, a timer) already removed the row.
	OutcomeSkipped Outcome = "skipped"
)

// SweepReport summarizes one sweep of one guild
type SweepReport struct {
	GuildID  string          `json:"guildId"`
	Due      int             `json:"due"`
	Outcomes map[Outcome]int `json:"outcomes"`
	Took     time.Duration   `json:"took"`
}

// Reconciler reverses expired sanctions and keeps membership state fresh
type Reconciler struct {
	*lifecycle
	concurrency int
}

// Sweep reverses every sanction of the guild whose expiry has passed.
//
// Subjects are processed in parallel up to the configured limit; each
// subject's sanctions run in order. A failure is logged and leaves the row for
// the next sweep; it never stops other subjects. The returned error only
// reports that the due sanctions could not be listed.
func (r *Reconciler) Sweep(ctx context.Context, guildID string) (SweepReport, error) {
	start := time.Now()
	report := SweepReport{GuildID: guildID, Outcomes: make(map[Outcome]int)}

	due, err := r.store.Expired(ctx, guildID, r.now())
	if err != nil {
		return report, transient("list expired sanctions", err)
	}
	report.Due = len(due)
	if len(due) == 0 {
		return report, nil
	}

	cfg := r.configs.GuildConfig(ctx, guildID)

	var order []string
	bySubject := make(map[string][]models.Sanction)
	for _, s := range due {
		if _, ok := bySubject[s.SubjectID]; !ok {
			order = append(order, s.SubjectID)
		}
		bySubject[s.SubjectID] = append(bySubject[s.SubjectID], s)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, subjectID := range order {
		rows := bySubject[subjectID]
		g.Go(func() error {
			defer apperrors.RecoverMiddleware()()
			for i := range rows {
				out := r.reconcile(ctx, cfg, &rows[i])
				mu.Lock()
				report.Outcomes[out]++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Took = time.Since(start)
	r.metrics.SweepDuration.Observe(report.Took.Seconds())
	if failed := report.Outcomes[OutcomeFailed]; failed > 0 {
		r.metrics.SweepFailures.Add(float64(failed))
		logger.Warn(fmt.Sprintf("Barrido de %s: %d/%d sanciones quedan para reintentar", guildID, failed, report.Due), "Sweep")
	}
	return report, nil
}

// ResolveDue reconciles one sanction by id if it is due. It backs the
// fast-path timers; a row that is gone or not yet due is left alone.
func (r *Reconciler) ResolveDue(ctx context.Context, id string) {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn(fmt.Sprintf("Falló la búsqueda rápida de %s: %v", id, err), "Sweep")
		}
		return
	}
	if !s.Expired(r.now()) {
		r.timers.Schedule(s.ID, s.ExpiresAt)
		return
	}
	r.reconcile(ctx, r.configs.GuildConfig(ctx, s.GuildID), s)
}

// reconcile runs the per-sanction state machine
func (r *Reconciler) reconcile(ctx context.Context, cfg config.GuildSanctionConfig, s *models.Sanction) Outcome {
	if s.Kind.NeedsMember() {
		gone, err := r.departed(ctx, s)
		if err != nil {
			logger.Warn(fmt.Sprintf("No se pudo resolver a %s para %s %s: %v", s.SubjectID, s.Kind, s.ID, err), "Sweep")
			return OutcomeFailed
		}
		if gone {
			return r.cleanup(ctx, cfg, s)
		}
	}

	if err := r.reverse(ctx, s); err != nil {
		if isGone(err) {
			_ = r.snapshot.Remove(ctx, s.GuildID, s.SubjectID)
			return r.cleanup(ctx, cfg, s)
		}
		logger.Warn(fmt.Sprintf("Falló la reversión de %s %s: %v", s.Kind, s.ID, err), "Sweep")
		return OutcomeFailed
	}

	deleted, err := r.finish(ctx, cfg, s, resolvedExpired)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo eliminar %s %s: %v", s.Kind, s.ID, err), "Sweep")
		return OutcomeFailed
	}
	if !deleted {
		return OutcomeSkipped
	}
	return OutcomeReversed
}

// departed decides whether the subject left the guild. A mute trusts a
// present snapshot entry since removing the role fails for a departed member.
// A warning's reversal touches nothing, so it is always confirmed with a lookup.
func (r *Reconciler) departed(ctx context.Context, s *models.Sanction) (bool, error) {
	presence, err := r.snapshot.Lookup(ctx, s.GuildID, s.SubjectID)
	if err != nil {
		presence = membership.Unknown
	}
	if presence == membership.Present && s.Kind != models.KindWarning {
		return false, nil
	}

	if _, err := r.platform.Member(ctx, s.GuildID, s.SubjectID); err != nil {
		if isGone(err) {
			_ = r.snapshot.Remove(ctx, s.GuildID, s.SubjectID)
			return true, nil
		}
		return false, err
	}
	_ = r.snapshot.Add(ctx, s.GuildID, s.SubjectID)
	return false, nil
}

// cleanup drops the row of a subject that no longer exists, without reversal
func (r *Reconciler) cleanup(ctx context.Context, cfg config.GuildSanctionConfig, s *models.Sanction) Outcome {
	deleted, err := r.finish(ctx, cfg, s, resolvedGone)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo eliminar %s %s de %s, que ya no está: %v", s.Kind, s.ID, s.SubjectID, err), "Sweep")
		return OutcomeFailed
	}
	if !deleted {
		return OutcomeSkipped
	}
	logger.Debug(fmt.Sprintf("Descartado %s %s: %s salió de %s", s.Kind, s.ID, s.SubjectID, s.GuildID), "Sweep")
	return OutcomeSubjectGone
}

// ReconcileMembers refreshes the guild's membership snapshot and gives the
// new-member role to members that have no roles at all. It returns how many
// members were given the role.
func (r *Reconciler) ReconcileMembers(ctx context.Context, guildID string) (int, error) {
	members, err := r.platform.Members(ctx, guildID)
	if err != nil {
		return 0, transient("list members", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	if err := r.snapshot.Replace(ctx, guildID, ids); err != nil {
		logger.Warn(fmt.Sprintf("Falló la actualización del snapshot de %s: %v", guildID, err), "Sweep")
	}

	cfg := r.configs.GuildConfig(ctx, guildID)
	if cfg.NewMemberRoleName == "" {
		return 0, nil
	}

	var roleID string
	healed := 0
	for _, m := range members {
		if m.Bot || len(m.Roles) > 0 {
			continue
		}
		if roleID == "" {
			if roleID, err = r.platform.EnsureRole(ctx, guildID, cfg.NewMemberRoleName, 0); err != nil {
				return healed, transient("ensure new member role", err)
			}
		}
		if err := r.platform.AddRole(ctx, guildID, m.ID, roleID); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo dar a %s el rol de nuevo miembro en %s: %v", m.ID, guildID, err), "Sweep")
			continue
		}
		healed++
	}
	return healed, nil
}

// MemberJoined records a new member in the snapshot and gives it the
// new-member role. Bots are only recorded.
func (r *Reconciler) MemberJoined(ctx context.Context, guildID, userID string, bot bool) error {
	if err := r.snapshot.Add(ctx, guildID, userID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo añadir a %s al snapshot de %s: %v", userID, guildID, err), "Members")
	}

	cfg := r.configs.GuildConfig(ctx, guildID)
	if bot || cfg.NewMemberRoleName == "" {
		return nil
	}
	roleID, err := r.platform.EnsureRole(ctx, guildID, cfg.NewMemberRoleName, 0)
	if err != nil {
		return transient("ensure new member role", err)
	}
	if err := r.platform.AddRole(ctx, guildID, userID, roleID); err != nil {
		return transient("add new member role", err)
	}
	return nil
}

// MemberLeft drops the member from the snapshot. Its sanctions stay until
// the sweep finds them due.
func (r *Reconciler) MemberLeft(ctx context.Context, guildID, userID string) error {
	return r.snapshot.Remove(ctx, guildID, userID)
}
