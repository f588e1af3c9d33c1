package sanctions

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
)

// Template is a message with {name} placeholders
type Template string

// Vars fills a Template
type Vars map[string]string

// Render replaces every {key} in t. Unknown placeholders are left untouched.
func (t Template) Render(vars Vars) string {
	if len(vars) == 0 {
		return string(t)
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(string(t))
}

const (
	TmplIssuedNotice    Template = "Recibiste una sanción ({kind}) en **{guild}** por {duration}. Razón: {reason}"
	TmplIssuedAudit     Template = "Sanción ({kind}) para <@{subject}> por <@{moderator}> durante {duration} (hasta <t:{expires}:f>). Razón: {reason}. Id: `{id}`"
	TmplExpiredNotice   Template = "Tu sanción ({kind}) en **{guild}** ha expirado."
	TmplExpiredAudit    Template = "Expiró la sanción ({kind}) de <@{subject}>. Id: `{id}`"
	TmplLiftedNotice    Template = "Un moderador retiró tu sanción ({kind}) en **{guild}**."
	TmplLiftedAudit     Template = "<@{moderator}> retiró antes de tiempo la sanción ({kind}) de <@{subject}>. Id: `{id}`"
	TmplEscalationAudit Template = "<@{moderator}> intentó advertir a <@{subject}>, que ya tiene {count}/{max} advertencias. Razón: {reason}"
	TmplAutomodAudit    Template = "Mensaje de <@{subject}> en <#{channel}> eliminado por el filtro de contenido (coincidencia `{match}`)."
)

// LogSink delivers best-effort notifications. Nothing it does can fail the
// caller: errors are logged and counted, never returned.
type LogSink struct {
	platform Platform
	metrics  *metrics.Metrics
}

// NewLogSink creates a sink over platform
func NewLogSink(platform Platform, m *metrics.Metrics) *LogSink {
	return &LogSink{platform: platform, metrics: m}
}

// Notify sends a direct message to the subject
func (l *LogSink) Notify(ctx context.Context, subjectID string, tmpl Template, vars Vars) {
	msg := tmpl.Render(vars)
	if err := l.platform.SendDM(ctx, subjectID, msg); err != nil {
		l.metrics.DeliveryFailures.WithLabelValues("notify").Inc()
		logger.Warn(fmt.Errorf("%w: DM a %s: %v", ErrNotification, subjectID, err).Error(), "LogSink")
	}
}

// Audit writes to the named channel of the guild, creating it when missing.
// If the channel cannot be used the entry is only written to the bot log.
func (l *LogSink) Audit(ctx context.Context, guildID, channelName string, tmpl Template, vars Vars) {
	msg := tmpl.Render(vars)

	channelID, err := l.platform.EnsureChannel(ctx, guildID, channelName)
	if err == nil {
		err = l.platform.SendMessage(ctx, channelID, msg)
	}
	if err != nil {
		l.metrics.DeliveryFailures.WithLabelValues("audit").Inc()
		logger.Warn(fmt.Errorf("%w: #%s en %s: %v", ErrAudit, channelName, guildID, err).Error(), "LogSink")
		logger.Info(fmt.Sprintf("[%s] %s", guildID, msg), "Audit")
	}
}
