package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillchain/internal/endorsement/models"
	"skillchain/internal/endorsement/store"
	"skillchain/internal/events"
	"skillchain/internal/platform/metrics"
	"skillchain/internal/platform/tracer"
	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/requestcontext"
)

type Option func(*Service)

// Service records stake-weighted endorsements.
//
// Endorse does not consult the registry unless WithCredentialLookup is set:
// by default an endorsement for an id that was never minted is recorded.
type Service struct {
	executor  *state.Executor
	store     *store.Store
	balances  BalanceLedger
	sequencer Sequencer
	lookup    CredentialLookup
	publisher Publisher
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	logger    *slog.Logger
}

func NewService(executor *state.Executor, st *store.Store, balances BalanceLedger, sequencer Sequencer, opts ...Option) *Service {
	svc := &Service{
		executor:  executor,
		store:     st,
		balances:  balances,
		sequencer: sequencer,
		tracer:    tracer.NewNoop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithCredentialLookup rejects endorsements of unknown credentials with
// CodeCredentialNotFound before any funds are reserved.
func WithCredentialLookup(lookup CredentialLookup) Option {
	return func(s *Service) {
		s.lookup = lookup
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// ChecksCredentialExists reports whether endorsements of unknown ids are rejected.
func (s *Service) ChecksCredentialExists() bool {
	return s.lookup != nil
}

// Endorse reserves stake from caller and records it against credentialID.
// Reservation, list append and score update commit together or not at all.
func (s *Service) Endorse(ctx context.Context, caller id.AccountID, credentialID id.CredentialID, stake id.Balance) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanEndorse,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.Int64(tracer.AttrCredentialID, int64(credentialID)),
		tracer.String(tracer.AttrStake, stake.String()),
	)
	defer func() {
		span.End(err)
		s.observe("endorse", start, err)
	}()

	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller account")
	}

	var (
		block id.BlockNumber
		score id.Balance
	)
	err = s.executor.Execute(ctx, func(kv state.ReadWriter) error {
		if s.lookup != nil {
			exists, err := s.lookup.Exists(ctx, kv, credentialID)
			if err != nil {
				return fmt.Errorf("look up credential: %w", err)
			}
			if !exists {
				return dErrors.New(dErrors.CodeCredentialNotFound, fmt.Sprintf("credential %d not found", credentialID))
			}
		}

		if err := s.balances.Reserve(ctx, kv, caller, stake); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInsufficientBalance,
					fmt.Sprintf("account %s cannot reserve %d", caller, stake))
			}
			return fmt.Errorf("reserve stake: %w", err)
		}

		var err error
		score, err = s.store.Record(ctx, kv, credentialID, models.Endorsement{Endorser: caller, Stake: stake})
		if err != nil {
			return err
		}
		if block, err = s.sequencer.BlockNumber(ctx); err != nil {
			return fmt.Errorf("read block number: %w", err)
		}
		return nil
	})
	if err != nil {
		return translate(err, "failed to endorse credential")
	}

	span.AddEvent(tracer.EventCommitted, tracer.Int64(tracer.AttrBlockNumber, int64(block)))
	s.emit(ctx, events.CredentialEndorsed(credentialID, caller, stake, block))
	if s.metrics != nil {
		s.metrics.IncrementEndorsed(uint64(stake))
	}
	s.logger.InfoContext(ctx, "credential endorsed",
		"credential_id", credentialID,
		"endorser", caller,
		"stake", stake,
		"score", score,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Endorsements returns the endorsements recorded against credentialID, oldest first.
func (s *Service) Endorsements(ctx context.Context, credentialID id.CredentialID) ([]models.Endorsement, error) {
	var list []models.Endorsement
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		list, err = s.store.Endorsements(ctx, kv, credentialID)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load endorsements")
	}
	return list, nil
}

// Score returns the SkillScore of credentialID. Never-endorsed ids score zero.
func (s *Service) Score(ctx context.Context, credentialID id.CredentialID) (id.Balance, error) {
	var score id.Balance
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		score, err = s.store.Score(ctx, kv, credentialID)
		return err
	})
	if err != nil {
		return 0, translate(err, "failed to load score")
	}
	return score, nil
}

func translate(err error, msg string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event",
			"type", event.Type,
			"credential_id", event.CredentialID,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementPublishErrors(string(event.Type))
		}
	}
}

func (s *Service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperationLatency(operation, time.Since(start).Seconds())
	if err != nil {
		s.metrics.IncrementRejected(operation, string(dErrors.CodeOf(err)))
	}
}
