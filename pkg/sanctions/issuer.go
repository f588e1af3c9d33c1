package sanctions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/duration"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// IssueRequest is a moderator's request to sanction a subject.
// RawDuration and Reason are optional.
type IssueRequest struct {
	GuildID     string
	ModeratorID string
	SubjectID   string
	Kind        models.SanctionKind
	RawDuration string
	Reason      string
}

// Issuer validates sanction requests, applies them on Discord and stores them
type Issuer struct {
	*lifecycle
	guard *Guard
	locks *keyedMutex
}

// Issue sanctions the subject and returns the new sanction id.
//
// Validation, permission and ceiling checks all run before any side effect.
// A refused warning still leaves an audit entry. If the store write fails the
// platform effect is rolled back best effort.
func (is *Issuer) Issue(ctx context.Context, req IssueRequest) (string, error) {
	if !req.Kind.Valid() {
		return "", validationf("unknown sanction kind %q", req.Kind)
	}
	if req.SubjectID == "" {
		return "", validationf("missing subject")
	}
	if req.SubjectID == req.ModeratorID {
		return "", validationf("moderators cannot sanction themselves")
	}

	cfg := is.configs.GuildConfig(ctx, req.GuildID)

	d, err := resolveDuration(cfg, req.Kind, req.RawDuration)
	if err != nil {
		return "", err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = cfg.DefaultReason
	}

	if err := is.authorize(ctx, req); err != nil {
		return "", err
	}

	if req.Kind == models.KindWarning {
		unlock := is.locks.Lock(is.guard.lockKey(cfg, req.GuildID, req.SubjectID))
		defer unlock()

		n, err := is.guard.count(ctx, cfg, req.GuildID, req.SubjectID)
		if err != nil {
			return "", err
		}
		if n >= cfg.MaxWarnings {
			is.refuse(ctx, cfg, req, reason, n)
			return "", fmt.Errorf("%w: %d/%d", ErrEscalationLimit, n, cfg.MaxWarnings)
		}
	}

	now := is.now()
	s := &models.Sanction{
		ID:          is.newID(),
		GuildID:     req.GuildID,
		SubjectID:   req.SubjectID,
		ModeratorID: req.ModeratorID,
		Kind:        req.Kind,
		Reason:      reason,
		IssuedAt:    now,
		ExpiresAt:   now.Add(d),
	}

	if err := is.apply(ctx, cfg, s); err != nil {
		return "", err
	}

	if err := is.store.Insert(ctx, s); err != nil {
		if rerr := is.reverse(ctx, s); rerr != nil {
			logger.Error(fmt.Sprintf("Falló la reversión de %s para %s: %v", s.Kind, s.SubjectID, rerr), "Sanctions")
		}
		return "", transient("store sanction", err)
	}

	is.metrics.SanctionsIssued.WithLabelValues(string(s.Kind)).Inc()
	is.record(ctx, models.EventIssued, s, req.ModeratorID)
	is.timers.Schedule(s.ID, s.ExpiresAt)

	vars := is.vars(ctx, s)
	if cfg.NotifySubject {
		is.sink.Notify(ctx, s.SubjectID, TmplIssuedNotice, vars)
	}
	is.sink.Audit(ctx, s.GuildID, cfg.AuditChannel(s.Kind), TmplIssuedAudit, vars)

	logger.Info(fmt.Sprintf("%s %s aplicado a %s en %s hasta %s", s.Kind, s.ID, s.SubjectID, s.GuildID, s.ExpiresAt.Format(time.RFC3339)), "Sanctions")
	return s.ID, nil
}

// resolveDuration applies the kind default to an empty input and the
// upper bound to everything else
func resolveDuration(cfg config.GuildSanctionConfig, kind models.SanctionKind, raw string) (time.Duration, error) {
	d, ok, err := duration.Parse(raw)
	if err != nil {
		return 0, validationf("duration %q: %v", raw, err)
	}
	if !ok {
		d = cfg.DefaultDuration(kind)
	}
	if d <= 0 {
		d = duration.Fallback
	}
	if cfg.MaxDuration > 0 && d > cfg.MaxDuration {
		return 0, validationf("duration %s exceeds the maximum of %s", duration.Format(d), duration.Format(cfg.MaxDuration))
	}
	return d, nil
}

// authorize runs the permission and hierarchy checks
func (is *Issuer) authorize(ctx context.Context, req IssueRequest) error {
	moderator, err := is.platform.Member(ctx, req.GuildID, req.ModeratorID)
	if err != nil {
		if isGone(err) {
			return validationf("moderator %s is not a member", req.ModeratorID)
		}
		return transient("resolve moderator", err)
	}
	if !moderator.Has(ModeratorPermission(req.Kind)) {
		return deniedf("moderator lacks the permission to %s", req.Kind)
	}

	bot, err := is.platform.BotMember(ctx, req.GuildID)
	if err != nil {
		return transient("resolve bot member", err)
	}
	if !bot.Has(BotPermission(req.Kind)) {
		return deniedf("bot lacks the permission to %s", req.Kind)
	}

	ownerID, err := is.platform.GuildOwnerID(ctx, req.GuildID)
	if err != nil {
		return transient("resolve guild owner", err)
	}
	if req.SubjectID == ownerID {
		return deniedf("the guild owner cannot be sanctioned")
	}

	subject, err := is.platform.Member(ctx, req.GuildID, req.SubjectID)
	if err != nil {
		if !isGone(err) {
			return transient("resolve subject", err)
		}
		// users outside the guild can still be banned by id
		if req.Kind == models.KindBan {
			return nil
		}
		return validationf("subject %s is not a member", req.SubjectID)
	}

	if bot.TopRolePosition <= subject.TopRolePosition {
		return deniedf("subject's highest role is not below the bot's")
	}
	if req.ModeratorID != ownerID && moderator.TopRolePosition <= subject.TopRolePosition {
		return deniedf("subject's highest role is not below the moderator's")
	}
	return nil
}

// apply performs the platform effect of s. Warnings have none.
func (is *Issuer) apply(ctx context.Context, cfg config.GuildSanctionConfig, s *models.Sanction) error {
	switch s.Kind {
	case models.KindMute:
		roleID, err := is.platform.EnsureRole(ctx, s.GuildID, cfg.MuteRoleName, MutedPermissions)
		if err != nil {
			return transient("ensure mute role", err)
		}
		if err := is.platform.AddRole(ctx, s.GuildID, s.SubjectID, roleID); err != nil {
			return transient("add mute role", err)
		}
		s.RoleID = roleID
	case models.KindBan:
		if err := is.platform.Ban(ctx, s.GuildID, s.SubjectID, s.Reason); err != nil {
			return transient("ban", err)
		}
	}
	return nil
}

// refuse records a warning rejected by the ceiling
func (is *Issuer) refuse(ctx context.Context, cfg config.GuildSanctionConfig, req IssueRequest, reason string, count int) {
	is.metrics.EscalationRefusals.Inc()

	s := &models.Sanction{GuildID: req.GuildID, SubjectID: req.SubjectID, ModeratorID: req.ModeratorID, Kind: req.Kind, Reason: reason}
	is.record(ctx, models.EventEscalationRefused, s, req.ModeratorID)

	is.sink.Audit(ctx, req.GuildID, cfg.LogChannel, TmplEscalationAudit, Vars{
		"moderator": req.ModeratorID,
		"subject":   req.SubjectID,
		"count":     strconv.Itoa(count),
		"max":       strconv.Itoa(cfg.MaxWarnings),
		"reason":    reason,
	})
	logger.Warn(fmt.Sprintf("Advertencia para %s en %s rechazada en %d/%d", req.SubjectID, req.GuildID, count, cfg.MaxWarnings), "Sanctions")
}

// Lift reverses and deletes one sanction before it expires. actorID is
// recorded in history; it may be empty for system lifts. Lifting a sanction
// that is already gone returns false and no error.
func (is *Issuer) Lift(ctx context.Context, id, actorID string) (bool, error) {
	s, err := is.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		is.timers.Cancel(id)
		return false, nil
	}
	if err != nil {
		return false, transient("load sanction", err)
	}
	return is.lift(ctx, is.configs.GuildConfig(ctx, s.GuildID), s, actorID)
}

// LiftEarly lifts every outstanding sanction of kind held by the subject in
// the guild and returns how many this call removed. When actorID is set the
// actor must hold the kind's moderator permission.
func (is *Issuer) LiftEarly(ctx context.Context, guildID, subjectID string, kind models.SanctionKind, actorID string) (int, error) {
	if !kind.Valid() {
		return 0, validationf("unknown sanction kind %q", kind)
	}
	if subjectID == "" {
		return 0, validationf("missing subject")
	}
	if actorID != "" {
		actor, err := is.platform.Member(ctx, guildID, actorID)
		if err != nil {
			if isGone(err) {
				return 0, validationf("moderator %s is not a member", actorID)
			}
			return 0, transient("resolve moderator", err)
		}
		if !actor.Has(ModeratorPermission(kind)) {
			return 0, deniedf("moderator lacks the permission to lift a %s", kind)
		}
	}

	rows, err := is.store.ListForSubject(ctx, guildID, subjectID, kind)
	if err != nil {
		return 0, transient("list sanctions", err)
	}

	cfg := is.configs.GuildConfig(ctx, guildID)
	lifted := 0
	for i := range rows {
		ok, err := is.lift(ctx, cfg, &rows[i], actorID)
		if err != nil {
			return lifted, err
		}
		if ok {
			lifted++
		}
	}
	return lifted, nil
}

func (is *Issuer) lift(ctx context.Context, cfg config.GuildSanctionConfig, s *models.Sanction, actorID string) (bool, error) {
	if err := is.reverse(ctx, s); err != nil {
		if !isGone(err) {
			return false, err
		}
		_ = is.snapshot.Remove(ctx, s.GuildID, s.SubjectID)
		return is.finish(ctx, cfg, s, resolvedGone)
	}
	return is.finish(ctx, cfg, s, resolvedLifted(actorID))
}
