package models

import "time"

// SanctionKind identifies what a sanction does on the platform
type SanctionKind string

const (
	KindWarning SanctionKind = "warning"
	KindMute    SanctionKind = "mute"
	KindBan     SanctionKind = "ban"
)

// Kinds lists every sanction kind in display order
var Kinds = []SanctionKind{KindWarning, KindMute, KindBan}

// Valid reports whether k is a known kind
func (k SanctionKind) Valid() bool {
	switch k {
	case KindWarning, KindMute, KindBan:
		return true
	}
	return false
}

// Label is the Spanish noun shown to users
func (k SanctionKind) Label() string {
	switch k {
	case KindWarning:
		return "advertencia"
	case KindMute:
		return "silencio"
	case KindBan:
		return "baneo"
	}
	return string(k)
}

// NeedsMember reports whether reversing the sanction requires the subject to
// still be a guild member. Bans are lifted on users who are, by definition,
// not members.
func (k SanctionKind) NeedsMember() bool {
	return k != KindBan
}

// Sanction is one outstanding timed sanction. Rows are never edited: resolving
// a sanction deletes it.
type Sanction struct {
	ID          string       `bson:"_id" json:"id"`
	GuildID     string       `bson:"guildId" json:"guildId"`
	SubjectID   string       `bson:"subjectId" json:"subjectId"`
	ModeratorID string       `bson:"moderatorId" json:"moderatorId"`
	Kind        SanctionKind `bson:"kind" json:"kind"`
	RoleID      string       `bson:"roleId,omitempty" json:"roleId,omitempty"` // mute role
	Reason      string       `bson:"reason" json:"reason"`
	IssuedAt    time.Time    `bson:"issuedAt" json:"issuedAt"`
	ExpiresAt   time.Time    `bson:"expiresAt" json:"expiresAt"`
}

// Expired reports whether the sanction is due for reversal at now
func (s *Sanction) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HistoryEvent is a lifecycle transition recorded in the sanction history
type HistoryEvent string

const (
	EventIssued            HistoryEvent = "issued"
	EventExpired           HistoryEvent = "expired"
	EventLifted            HistoryEvent = "lifted"
	EventSubjectGone       HistoryEvent = "subject_gone"
	EventEscalationRefused HistoryEvent = "escalation_refused"
)

// SanctionHistoryEntry is an append-only record of what happened to a sanction.
// It outlives the sanction row.
type SanctionHistoryEntry struct {
	ID         string       `bson:"_id" json:"id"`
	SanctionID string       `bson:"sanctionId,omitempty" json:"sanctionId,omitempty"`
	Event      HistoryEvent `bson:"event" json:"event"`
	GuildID    string       `bson:"guildId" json:"guildId"`
	SubjectID  string       `bson:"subjectId" json:"subjectId"`
	ActorID    string       `bson:"actorId,omitempty" json:"actorId,omitempty"`
	Kind       SanctionKind `bson:"kind" json:"kind"`
	Reason     string       `bson:"reason,omitempty" json:"reason,omitempty"`
	ExpiresAt  time.Time    `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	RecordedAt time.Time    `bson:"recordedAt" json:"recordedAt"`
}
