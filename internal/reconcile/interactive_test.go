package reconcile

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rolegate/internal/gateway"
	"rolegate/internal/gateway/mocks"
	"rolegate/internal/verify"
)

func memberSeq(members ...gateway.Member) iter.Seq2[gateway.Member, error] {
	return func(yield func(gateway.Member, error) bool) {
		for _, m := range members {
			if !yield(m, nil) {
				return
			}
		}
	}
}

type InteractiveSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	gw       *mocks.MockGateway
	verifier *fakeVerifier
	engine   *Engine
}

func TestInteractiveSuite(t *testing.T) {
	suite.Run(t, new(InteractiveSuite))
}

func (s *InteractiveSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gw = mocks.NewMockGateway(s.ctrl)
	s.verifier = newFakeVerifier("role-1")
	s.engine = New(s.verifier, s.gw, 3, time.Second, slog.New(slog.DiscardHandler), nil)
}

func (s *InteractiveSuite) TestCheckAndGrantGranted() {
	s.verifier.script("user-1", nil)
	s.gw.EXPECT().AddMemberRole(gomock.Any(), "guild-1", "user-1", "role-1").Return(nil)

	outcome, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")
	s.Require().NoError(err)
	s.Equal(OutcomeGranted, outcome)
}

func (s *InteractiveSuite) TestCheckAndGrantNotVerifiedHandsOffToLoop() {
	s.verifier.script("user-1", verify.ErrNotVerified)

	outcome, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")
	s.Require().NoError(err)
	s.Equal(OutcomeNotVerified, outcome)

	// The user must now be in the background loop's next generation.
	s.engine.drainInbox()
	s.Contains(s.engine.tracked, "user-1")
	s.Equal(3, s.engine.tracked["user-1"].remaining)
}

func (s *InteractiveSuite) TestCheckAndGrantGuildNotConfigured() {
	s.verifier.script("user-1", nil)
	s.verifier.resolveErr = verify.ErrGuildNotConfigured

	outcome, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")
	s.Require().NoError(err)
	s.Equal(OutcomeGuildNotConfigured, outcome)
}

func (s *InteractiveSuite) TestCheckAndGrantGuildNotApproved() {
	s.verifier.script("user-1", nil)
	s.verifier.resolveErr = verify.ErrGuildNotApproved

	outcome, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")
	s.Require().NoError(err)
	s.Equal(OutcomeGuildNotApproved, outcome)
}

func (s *InteractiveSuite) TestCheckAndGrantBackendErrorPropagates() {
	s.verifier.script("user-1", &verify.BackendError{Status: 500, Body: "boom"})

	_, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")

	var backendErr *verify.BackendError
	s.Require().ErrorAs(err, &backendErr)
}

func (s *InteractiveSuite) TestCheckAndGrantMutationFailureSurfaced() {
	s.verifier.script("user-1", nil)
	s.gw.EXPECT().AddMemberRole(gomock.Any(), "guild-1", "user-1", "role-1").
		Return(errors.New("missing permission"))

	_, err := s.engine.CheckAndGrant(context.Background(), "user-1", "guild-1")
	s.Require().ErrorIs(err, ErrGrantFailed)
}

// Ten members: three already hold the role, two are bots, five eligible, four
// of those verify. Expect four grants, five checks, and zero backend traffic
// for bots or already-verified members.
func (s *InteractiveSuite) TestBulkReVerify() {
	members := []gateway.Member{
		{UserID: "roled-1", RoleIDs: []string{"role-1"}},
		{UserID: "roled-2", RoleIDs: []string{"role-1", "other"}},
		{UserID: "roled-3", RoleIDs: []string{"role-1"}},
		{UserID: "bot-1", Bot: true},
		{UserID: "bot-2", Bot: true},
		{UserID: "member-1"},
		{UserID: "member-2"},
		{UserID: "member-3"},
		{UserID: "member-4"},
		{UserID: "member-5", RoleIDs: []string{"other"}},
	}
	for _, id := range []string{"member-1", "member-2", "member-3", "member-4"} {
		s.verifier.script(id, nil)
		s.gw.EXPECT().AddMemberRole(gomock.Any(), "guild-1", id, "role-1").Return(nil)
	}
	s.verifier.script("member-5", verify.ErrNotVerified)
	s.gw.EXPECT().Members(gomock.Any(), "guild-1").Return(memberSeq(members...))

	granted, err := s.engine.BulkReVerify(context.Background(), "guild-1")
	s.Require().NoError(err)
	s.Equal(4, granted)

	for _, id := range []string{"roled-1", "roled-2", "roled-3", "bot-1", "bot-2"} {
		s.Zero(s.verifier.calls(id))
	}
	for _, id := range []string{"member-1", "member-2", "member-3", "member-4", "member-5"} {
		s.Equal(1, s.verifier.calls(id))
	}
}

// The cached role mapping is dropped before the authoritative lookup, so the
// pass always grants the backend's current role.
func (s *InteractiveSuite) TestBulkReVerifyInvalidatesBeforeResolving() {
	s.gw.EXPECT().Members(gomock.Any(), "guild-1").Return(memberSeq())

	_, err := s.engine.BulkReVerify(context.Background(), "guild-1")
	s.Require().NoError(err)

	s.Equal([]string{"guild-1"}, s.verifier.invalidated)
	s.Equal([]string{"invalidate", "resolve"}, s.verifier.events)
}

func (s *InteractiveSuite) TestBulkReVerifyUnconfiguredGuild() {
	s.verifier.resolveErr = verify.ErrGuildNotConfigured

	_, err := s.engine.BulkReVerify(context.Background(), "guild-1")
	s.Require().ErrorIs(err, verify.ErrGuildNotConfigured)
}

func (s *InteractiveSuite) TestBulkReVerifyEnumerationFailure() {
	s.verifier.script("member-1", nil)
	s.gw.EXPECT().AddMemberRole(gomock.Any(), "guild-1", "member-1", "role-1").Return(nil)
	s.gw.EXPECT().Members(gomock.Any(), "guild-1").Return(
		iter.Seq2[gateway.Member, error](func(yield func(gateway.Member, error) bool) {
			if !yield(gateway.Member{UserID: "member-1"}, nil) {
				return
			}
			yield(gateway.Member{}, errors.New("connection reset"))
		}))

	granted, err := s.engine.BulkReVerify(context.Background(), "guild-1")
	s.Require().Error(err)
	s.Equal(1, granted)
}
