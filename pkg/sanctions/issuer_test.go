package sanctions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

type IssuerSuite struct {
	suite.Suite
	h *harness
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.h = newHarness(s.T(), testConfig())
	s.h.platform.addMember("u1", 1)
	s.h.platform.addMember("peer", 5)
}

func (s *IssuerSuite) TestWarningStoresAbsoluteExpiry() {
	id, err := s.h.issue(s.T(), "u1", models.KindWarning, "1d 2h")
	s.Require().NoError(err)

	row, err := s.h.store.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(s.h.t0.Add(26*time.Hour), row.ExpiresAt)
	s.Equal("Sin razón especificada", row.Reason)
	s.Equal([]models.HistoryEvent{models.EventIssued}, s.h.history.Events())
	s.Equal(1, s.h.platform.dmCount())
	s.Equal(1, s.h.platform.messageCount())
}

func (s *IssuerSuite) TestEmptyDurationUsesGuildDefault() {
	for _, tc := range []struct {
		kind models.SanctionKind
		want time.Duration
	}{
		{models.KindWarning, 30 * time.Minute},
		{models.KindMute, 5 * time.Minute},
	} {
		id, err := s.h.issue(s.T(), "u1", tc.kind, "")
		s.Require().NoError(err)
		row, _ := s.h.store.Get(context.Background(), id)
		s.Equal(s.h.t0.Add(tc.want), row.ExpiresAt, string(tc.kind))
	}
}

func (s *IssuerSuite) TestUnparseableDurationFallsBack() {
	id, err := s.h.issue(s.T(), "u1", models.KindWarning, "a while")
	s.Require().NoError(err)
	row, _ := s.h.store.Get(context.Background(), id)
	s.Equal(s.h.t0.Add(5*time.Minute), row.ExpiresAt)
}

func (s *IssuerSuite) TestOverflowingDurationIsValidationError() {
	_, err := s.h.issue(s.T(), "u1", models.KindWarning, "400d")
	s.ErrorIs(err, ErrValidation)
	s.True(Public(err))
	s.Equal(0, s.h.store.Len())
}

func (s *IssuerSuite) TestMuteGrantsRole() {
	id, err := s.h.issue(s.T(), "u1", models.KindMute, "10m")
	s.Require().NoError(err)

	row, _ := s.h.store.Get(context.Background(), id)
	s.Equal("role-Muted", row.RoleID)
	s.True(s.h.platform.hasRole("u1", "role-Muted"))
}

func (s *IssuerSuite) TestBanAcceptsNonMembers() {
	_, err := s.h.issue(s.T(), "stranger", models.KindBan, "1d")
	s.Require().NoError(err)
	s.Equal(1, s.h.platform.count("Ban"))
}

func (s *IssuerSuite) TestValidation() {
	_, err := s.h.issue(s.T(), "", models.KindWarning, "")
	s.ErrorIs(err, ErrValidation)

	_, err = s.h.issue(s.T(), "mod", models.KindWarning, "")
	s.ErrorIs(err, ErrValidation)

	_, err = s.h.issue(s.T(), "u1", models.SanctionKind("kick"), "")
	s.ErrorIs(err, ErrValidation)

	_, err = s.h.issue(s.T(), "ghost", models.KindMute, "")
	s.ErrorIs(err, ErrValidation)
}

func (s *IssuerSuite) TestHierarchy() {
	// same position as the moderator
	_, err := s.h.issue(s.T(), "peer", models.KindWarning, "")
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.h.issue(s.T(), "owner", models.KindWarning, "")
	s.ErrorIs(err, ErrPermissionDenied)

	// above the bot
	s.h.platform.addMember("admin", 15)
	_, err = s.h.svc.Issue(context.Background(), IssueRequest{GuildID: testGuild, ModeratorID: "owner", SubjectID: "admin", Kind: models.KindMute})
	s.ErrorIs(err, ErrPermissionDenied)

	// the owner outranks everyone below the bot
	_, err = s.h.svc.Issue(context.Background(), IssueRequest{GuildID: testGuild, ModeratorID: "owner", SubjectID: "peer", Kind: models.KindMute})
	s.NoError(err)

	s.Equal(1, s.h.store.Len())
	s.Equal(1, s.h.platform.count("AddRole"))
}

func (s *IssuerSuite) TestModeratorWithoutPermission() {
	s.h.platform.addMember("helper", 8)
	_, err := s.h.svc.Issue(context.Background(), IssueRequest{GuildID: testGuild, ModeratorID: "helper", SubjectID: "u1", Kind: models.KindWarning})
	s.ErrorIs(err, ErrPermissionDenied)
	s.Equal(0, s.h.store.Len())
}

func (s *IssuerSuite) TestCeiling() {
	for i := 0; i < 3; i++ {
		_, err := s.h.issue(s.T(), "u1", models.KindWarning, "1h")
		s.Require().NoError(err)
	}
	messagesBefore := s.h.platform.messageCount()

	_, err := s.h.issue(s.T(), "u1", models.KindWarning, "1h")
	s.ErrorIs(err, ErrEscalationLimit)
	s.True(Public(err))
	s.Equal(3, s.h.store.Len())

	// the refusal is still audited
	s.Equal(messagesBefore+1, s.h.platform.messageCount())
	events := s.h.history.Events()
	s.Equal(models.EventEscalationRefused, events[len(events)-1])

	n, err := s.h.svc.Count(context.Background(), testGuild, "u1")
	s.NoError(err)
	s.Equal(3, n)
}

func (s *IssuerSuite) TestMutesDoNotCountTowardCeiling() {
	for i := 0; i < 3; i++ {
		_, err := s.h.issue(s.T(), "u1", models.KindMute, "1h")
		s.Require().NoError(err)
	}
	_, err := s.h.issue(s.T(), "u1", models.KindWarning, "1h")
	s.NoError(err)
}

func (s *IssuerSuite) TestNotificationFailureDoesNotFailIssue() {
	s.h.platform.failDM = true
	s.h.platform.failChannel = true

	_, err := s.h.issue(s.T(), "u1", models.KindWarning, "")
	s.NoError(err)
	s.Equal(1, s.h.store.Len())
}

func (s *IssuerSuite) TestNotifySubjectDisabled() {
	cfg := testConfig()
	cfg.NotifySubject = false
	h := newHarness(s.T(), cfg)
	h.platform.addMember("u1", 1)

	_, err := h.issue(s.T(), "u1", models.KindWarning, "")
	s.NoError(err)
	s.Equal(0, h.platform.count("SendDM"))
	s.Equal(1, h.platform.messageCount())
}

func (s *IssuerSuite) TestStoreFailureRollsBackMute() {
	h := s.h
	failing := &failingStore{MemStore: h.store, insertErr: errors.New("write concern timeout")}
	h.svc.Issuer.store = failing

	_, err := h.issue(s.T(), "u1", models.KindMute, "")
	s.ErrorIs(err, ErrTransientPlatform)
	s.False(Public(err))
	s.False(h.platform.hasRole("u1", "role-Muted"))
	s.Equal(1, h.platform.count("RemoveRole"))
}

func (s *IssuerSuite) TestLiftEarlyMute() {
	_, err := s.h.issue(s.T(), "u1", models.KindMute, "1h")
	s.Require().NoError(err)

	n, err := s.h.svc.LiftEarly(context.Background(), testGuild, "u1", models.KindMute, "mod")
	s.Require().NoError(err)
	s.Equal(1, n)
	s.False(s.h.platform.hasRole("u1", "role-Muted"))
	s.Equal(0, s.h.store.Len())

	// the next sweep finds nothing, even after the original expiry
	s.h.clock.Advance(2 * time.Hour)
	removesBefore := s.h.platform.count("RemoveRole")
	report, err := s.h.svc.Sweep(context.Background(), testGuild)
	s.NoError(err)
	s.Equal(0, report.Due)
	s.Equal(removesBefore, s.h.platform.count("RemoveRole"))
}

func (s *IssuerSuite) TestLiftEarlyNothingOutstanding() {
	n, err := s.h.svc.LiftEarly(context.Background(), testGuild, "u1", models.KindWarning, "mod")
	s.NoError(err)
	s.Equal(0, n)
}

func (s *IssuerSuite) TestLiftEarlyRequiresPermission() {
	s.h.platform.addMember("helper", 8)
	_, err := s.h.svc.LiftEarly(context.Background(), testGuild, "u1", models.KindMute, "helper")
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *IssuerSuite) TestLiftByID() {
	id, err := s.h.issue(s.T(), "u1", models.KindWarning, "1h")
	s.Require().NoError(err)

	ok, err := s.h.svc.Lift(context.Background(), id, "mod")
	s.NoError(err)
	s.True(ok)

	ok, err = s.h.svc.Lift(context.Background(), id, "mod")
	s.NoError(err)
	s.False(ok)
}

func (s *IssuerSuite) TestGlobalCountScope() {
	cfg := testConfig()
	cfg.CountScope = config.ScopeGlobal
	h := newHarness(s.T(), cfg)
	h.platform.addMember("u1", 1)

	for _, guild := range []string{"a", "b", "c"} {
		_, err := h.svc.Issue(context.Background(), IssueRequest{GuildID: guild, ModeratorID: "mod", SubjectID: "u1", Kind: models.KindWarning})
		s.Require().NoError(err)
	}
	_, err := h.issue(s.T(), "u1", models.KindWarning, "")
	s.ErrorIs(err, ErrEscalationLimit)
}

// failingStore fails inserts and delegates the rest
type failingStore struct {
	*MemStore
	insertErr error
}

func (f *failingStore) Insert(ctx context.Context, s *models.Sanction) error {
	return f.insertErr
}
