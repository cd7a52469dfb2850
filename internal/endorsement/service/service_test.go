package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"skillchain/internal/balances"
	"skillchain/internal/endorsement/models"
	"skillchain/internal/endorsement/service/mocks"
	"skillchain/internal/endorsement/store"
	"skillchain/internal/events"
	"skillchain/internal/platform/metrics"
	registrymodels "skillchain/internal/registry/models"
	registrystore "skillchain/internal/registry/store"
	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	"skillchain/internal/state/memory"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	sequencer *mocks.MockSequencer
	publisher *mocks.MockPublisher
	backend   *memory.Store
	executor  *state.Executor
	ledger    *balances.Ledger
	metrics   *metrics.Metrics
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sequencer = mocks.NewMockSequencer(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.backend = memory.New()
	s.executor = state.NewExecutor(s.backend)
	s.ledger = balances.NewLedger()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = s.newService(s.ledger)

	s.sequencer.EXPECT().BlockNumber(gomock.Any()).Return(id.BlockNumber(9), nil).AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(ledger BalanceLedger, opts ...Option) *Service {
	base := []Option{
		WithPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewService(s.executor, store.New(), ledger, s.sequencer, append(base, opts...)...)
}

func (s *ServiceSuite) ignoreEvents() {
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ServiceSuite) endow(who id.AccountID, amount id.Balance) {
	s.Require().NoError(s.executor.Execute(context.Background(), func(kv state.ReadWriter) error {
		return s.ledger.Endow(context.Background(), kv, who, amount)
	}))
}

func (s *ServiceSuite) account(who id.AccountID) balances.Account {
	var acct balances.Account
	s.Require().NoError(s.executor.View(context.Background(), func(kv state.Reader) error {
		var err error
		acct, err = s.ledger.Account(context.Background(), kv, who)
		return err
	}))
	return acct
}

func (s *ServiceSuite) mintCredential(credentialID id.CredentialID) {
	st := registrystore.New()
	s.Require().NoError(s.executor.Execute(context.Background(), func(kv state.ReadWriter) error {
		return st.PutCredential(kv, registrymodels.NewCredential(credentialID, "alice", []byte("cid:abc"), false, 1))
	}))
}

func (s *ServiceSuite) assertScoreMatchesEndorsements(credentialID id.CredentialID) {
	list, err := s.service.Endorsements(context.Background(), credentialID)
	s.Require().NoError(err)
	score, err := s.service.Score(context.Background(), credentialID)
	s.Require().NoError(err)
	s.Equal(models.SumStakes(list), score)
}

// =============================================================================
// Endorse
// =============================================================================

func (s *ServiceSuite) TestEndorse_ReservesAndAccumulates() {
	s.ignoreEvents()
	ctx := context.Background()
	s.endow("carol", 150)
	s.endow("dave", 50)

	s.Require().NoError(s.service.Endorse(ctx, "carol", 0, 100))

	carol := s.account("carol")
	s.Equal(id.Balance(50), carol.Free)
	s.Equal(id.Balance(100), carol.Reserved)
	score, err := s.service.Score(ctx, 0)
	s.Require().NoError(err)
	s.Equal(id.Balance(100), score)

	s.Require().NoError(s.service.Endorse(ctx, "dave", 0, 50))

	score, err = s.service.Score(ctx, 0)
	s.Require().NoError(err)
	s.Equal(id.Balance(150), score)
	list, err := s.service.Endorsements(ctx, 0)
	s.Require().NoError(err)
	s.Equal([]models.Endorsement{
		{Endorser: "carol", Stake: 100},
		{Endorser: "dave", Stake: 50},
	}, list)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.Endorsements))
	s.Equal(150.0, testutil.ToFloat64(s.metrics.StakedTotal))
}

func (s *ServiceSuite) TestEndorse_EmitsEvent() {
	var got []events.Event
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			got = append(got, e)
			return nil
		})
	s.endow("carol", 10)

	s.Require().NoError(s.service.Endorse(context.Background(), "carol", 3, 10))

	s.Require().Len(got, 1)
	s.Equal(events.TypeCredentialEndorsed, got[0].Type)
	s.Equal(id.CredentialID(3), got[0].CredentialID)
	s.Equal(id.AccountID("carol"), got[0].Endorser)
	s.Equal(id.Balance(10), got[0].Stake)
	s.Equal(id.BlockNumber(9), got[0].BlockNumber)
}

func (s *ServiceSuite) TestEndorse_InsufficientBalanceChangesNothing() {
	s.ignoreEvents()
	s.endow("carol", 150)
	s.Require().NoError(s.service.Endorse(context.Background(), "carol", 0, 100))
	before := s.backend.Snapshot()

	err := s.service.Endorse(context.Background(), "carol", 0, 51)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	s.Equal(before, s.backend.Snapshot())

	s.T().Run("unknown account has nothing to reserve", func(t *testing.T) {
		err := s.service.Endorse(context.Background(), "nobody", 0, 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		assert.Equal(t, before, s.backend.Snapshot())
	})

	s.Equal(2.0, testutil.ToFloat64(s.metrics.RejectedOperations.WithLabelValues("endorse", "insufficient_balance")))
}

func (s *ServiceSuite) TestEndorse_UnknownCredentialAcceptedByDefault() {
	s.ignoreEvents()
	s.endow("carol", 10)

	s.Require().NoError(s.service.Endorse(context.Background(), "carol", 999, 10))

	score, err := s.service.Score(context.Background(), 999)
	s.Require().NoError(err)
	s.Equal(id.Balance(10), score)
	_, credentialErr := registrystore.New().Credential(context.Background(), s.backend, 999)
	s.True(errors.Is(credentialErr, sentinel.ErrNotFound), "no credential record exists for the endorsed id")
	s.False(s.service.ChecksCredentialExists())
}

func (s *ServiceSuite) TestEndorse_RepeatEndorsementsAccumulate() {
	s.ignoreEvents()
	s.endow("carol", 30)

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.service.Endorse(context.Background(), "carol", 1, 10))
	}

	list, err := s.service.Endorsements(context.Background(), 1)
	s.Require().NoError(err)
	s.Len(list, 3)
	s.Equal(id.Balance(30), s.account("carol").Reserved)
	s.assertScoreMatchesEndorsements(1)
}

func (s *ServiceSuite) TestEndorse_ZeroStake() {
	s.ignoreEvents()

	s.Require().NoError(s.service.Endorse(context.Background(), "pauper", 0, 0))

	list, err := s.service.Endorsements(context.Background(), 0)
	s.Require().NoError(err)
	s.Equal([]models.Endorsement{{Endorser: "pauper", Stake: 0}}, list)
	s.assertScoreMatchesEndorsements(0)
}

func (s *ServiceSuite) TestEndorse_ScoreSaturates() {
	s.ignoreEvents()
	s.endow("whale", id.MaxBalance)
	s.endow("carol", 10)

	s.Require().NoError(s.service.Endorse(context.Background(), "whale", 0, id.MaxBalance))
	s.Require().NoError(s.service.Endorse(context.Background(), "carol", 0, 10))

	score, err := s.service.Score(context.Background(), 0)
	s.Require().NoError(err)
	s.Equal(id.MaxBalance, score)
	s.assertScoreMatchesEndorsements(0)
}

func (s *ServiceSuite) TestEndorse_ScoreEqualsSumOfStakes() {
	s.ignoreEvents()
	endorsers := []id.AccountID{"a1", "a2", "a3", "a4"}
	for _, e := range endorsers {
		s.endow(e, 500)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		credentialID := id.CredentialID(rng.IntN(4))
		endorser := endorsers[rng.IntN(len(endorsers))]
		stake := id.Balance(rng.IntN(40))

		// Failures are allowed once an endorser runs dry; the identity must hold either way.
		_ = s.service.Endorse(context.Background(), endorser, credentialID, stake)
		s.assertScoreMatchesEndorsements(credentialID)
	}

	var staked id.Balance
	for c := id.CredentialID(0); c < 4; c++ {
		score, err := s.service.Score(context.Background(), c)
		s.Require().NoError(err)
		staked += score
	}
	var reserved id.Balance
	for _, e := range endorsers {
		acct := s.account(e)
		s.Equal(id.Balance(500), acct.Total(), "reservation never moves funds between accounts")
		reserved += acct.Reserved
	}
	s.Equal(reserved, staked, "every recorded stake was reserved")
}

// =============================================================================
// Opt-in referential integrity
// =============================================================================

func (s *ServiceSuite) TestEndorse_WithCredentialLookup() {
	s.ignoreEvents()
	svc := s.newService(s.ledger, WithCredentialLookup(registrystore.New()))
	s.True(svc.ChecksCredentialExists())
	s.endow("carol", 100)
	s.mintCredential(0)

	s.T().Run("unknown id is rejected before reserving", func(t *testing.T) {
		before := s.backend.Snapshot()
		err := svc.Endorse(context.Background(), "carol", 999, 10)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCredentialNotFound))
		assert.Equal(t, before, s.backend.Snapshot())
	})

	s.T().Run("minted id is accepted", func(t *testing.T) {
		require.NoError(t, svc.Endorse(context.Background(), "carol", 0, 10))
		score, err := svc.Score(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, id.Balance(10), score)
	})

	s.T().Run("lookup failure is internal and reserves nothing", func(t *testing.T) {
		lookup := mocks.NewMockCredentialLookup(s.ctrl)
		lookup.EXPECT().Exists(gomock.Any(), gomock.Any(), id.CredentialID(0)).Return(false, sentinel.ErrUnavailable)
		failing := s.newService(s.ledger, WithCredentialLookup(lookup))

		err := failing.Endorse(context.Background(), "carol", 0, 10)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.Equal(t, id.Balance(10), s.account("carol").Reserved)
	})
}

// =============================================================================
// Error propagation
// =============================================================================

func (s *ServiceSuite) TestEndorse_ErrorPropagation() {
	s.T().Run("missing caller returns CodeUnauthorized", func(t *testing.T) {
		err := s.service.Endorse(context.Background(), "", 0, 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("ledger failure returns CodeInternal without recording", func(t *testing.T) {
		ledger := mocks.NewMockBalanceLedger(s.ctrl)
		ledger.EXPECT().Reserve(gomock.Any(), gomock.Any(), id.AccountID("carol"), id.Balance(5)).
			Return(sentinel.ErrUnavailable)
		svc := s.newService(ledger)

		err := svc.Endorse(context.Background(), "carol", 0, 5)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Empty(t, s.backend.Keys())
	})

	s.T().Run("commit failure returns CodeInternal and emits nothing", func(t *testing.T) {
		s.endow("carol", 5)
		s.backend.FailCommits(errors.New("disk full"))
		defer s.backend.FailCommits(nil)

		err := s.service.Endorse(context.Background(), "carol", 0, 5)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.T().Run("publish failure does not fail the call", func(t *testing.T) {
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
		s.endow("dave", 5)

		require.NoError(t, s.service.Endorse(context.Background(), "dave", 0, 5))
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.EventPublishErrors.WithLabelValues("credential_endorsed")))
	})
}
