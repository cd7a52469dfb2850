package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"skillchain/internal/events"
	"skillchain/internal/platform/metrics"
	"skillchain/internal/platform/tracer"
	"skillchain/internal/registry/models"
	"skillchain/internal/registry/store"
	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/requestcontext"
)

var (
	// ErrCredentialIDExhausted is returned once the counter reaches the top of the id space.
	ErrCredentialIDExhausted = dErrors.New(dErrors.CodeInvariantViolation, "credential id space exhausted")
	// ErrNotVerifier is returned when the verifier policy rejects the caller.
	ErrNotVerifier = dErrors.New(dErrors.CodeForbidden, "caller is not a credential verifier")
)

type Option func(*Service)

// Service issues credentials and manages their verification lifecycle.
//
// Every call runs through the state executor, so a rejected call never
// leaves a partial write behind. Events are emitted after commit.
type Service struct {
	executor          *state.Executor
	store             *store.Store
	sequencer         Sequencer
	publisher         Publisher
	policy            VerifierPolicy
	maxMetadataLength int
	metrics           *metrics.Metrics
	tracer            tracer.Tracer
	logger            *slog.Logger
}

func NewService(executor *state.Executor, st *store.Store, sequencer Sequencer, opts ...Option) *Service {
	svc := &Service{
		executor:          executor,
		store:             st,
		sequencer:         sequencer,
		policy:            OpenPolicy{},
		maxMetadataLength: models.DefaultMaxMetadataLength,
		tracer:            tracer.NewNoop(),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithVerifierPolicy replaces the default OpenPolicy.
func WithVerifierPolicy(p VerifierPolicy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithMaxMetadataLength configures the metadataRef bound.
// Zero or negative values keep DefaultMaxMetadataLength.
func WithMaxMetadataLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMetadataLength = n
		}
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

// MaxMetadataLength reports the configured metadataRef bound.
func (s *Service) MaxMetadataLength() int {
	return s.maxMetadataLength
}

// Mint allocates the next credential id and records a credential owned and issued by caller.
func (s *Service) Mint(ctx context.Context, caller id.AccountID, metadataRef []byte, soulbound bool) (_ id.CredentialID, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanMint,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.Int64(tracer.AttrMetadataLen, int64(len(metadataRef))),
		tracer.Bool(tracer.AttrSoulbound, soulbound),
	)
	defer func() {
		span.End(err)
		s.observe("mint", start, err)
	}()

	if caller.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "missing caller account")
	}
	if len(metadataRef) > s.maxMetadataLength {
		return 0, dErrors.New(dErrors.CodeMetadataTooLong,
			fmt.Sprintf("metadata reference is %d bytes, maximum is %d", len(metadataRef), s.maxMetadataLength))
	}

	var credential *models.Credential
	err = s.executor.Execute(ctx, func(kv state.ReadWriter) error {
		block, err := s.sequencer.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("read block number: %w", err)
		}
		next, err := s.store.NextID(ctx, kv)
		if err != nil {
			return err
		}
		if next == math.MaxUint32 {
			return ErrCredentialIDExhausted
		}

		credential = models.NewCredential(next, caller, metadataRef, soulbound, block)
		if err := s.store.PutCredential(kv, credential); err != nil {
			return err
		}
		if err := s.store.AppendAccountCredential(ctx, kv, caller, next); err != nil {
			return err
		}
		return s.store.SetNextID(kv, next+1)
	})
	if err != nil {
		return 0, translate(err, "failed to mint credential")
	}

	span.SetAttributes(tracer.Int64(tracer.AttrCredentialID, int64(credential.ID)))
	span.AddEvent(tracer.EventCommitted, tracer.Int64(tracer.AttrBlockNumber, int64(credential.IssuedAt)))
	s.emit(ctx, events.CredentialMinted(credential.ID, credential.Owner, credential.IssuedAt))
	if s.metrics != nil {
		s.metrics.IncrementMinted()
	}
	s.logger.InfoContext(ctx, "credential minted",
		"credential_id", credential.ID,
		"owner", credential.Owner,
		"soulbound", credential.Soulbound,
		"issued_at", credential.IssuedAt,
		"request_id", requestcontext.RequestID(ctx),
	)
	return credential.ID, nil
}

// Verify marks a credential verified. Verifying an already verified credential
// succeeds without writing and still emits CredentialVerified.
func (s *Service) Verify(ctx context.Context, caller id.AccountID, credentialID id.CredentialID) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.Int64(tracer.AttrCredentialID, int64(credentialID)),
	)
	defer func() {
		span.End(err)
		s.observe("verify", start, err)
	}()

	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller account")
	}
	if !s.policy.CanVerify(caller) {
		s.logger.WarnContext(ctx, "verify rejected by verifier policy",
			"caller", caller,
			"credential_id", credentialID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return ErrNotVerifier
	}

	var (
		block   id.BlockNumber
		changed bool
	)
	err = s.executor.Execute(ctx, func(kv state.ReadWriter) error {
		credential, err := s.store.Credential(ctx, kv, credentialID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return credentialNotFound(credentialID)
			}
			return err
		}
		if block, err = s.sequencer.BlockNumber(ctx); err != nil {
			return fmt.Errorf("read block number: %w", err)
		}
		if changed = credential.MarkVerified(); !changed {
			return nil
		}
		return s.store.PutCredential(kv, credential)
	})
	if err != nil {
		return translate(err, "failed to verify credential")
	}

	s.emit(ctx, events.CredentialVerified(credentialID, caller, block))
	if s.metrics != nil {
		s.metrics.IncrementVerified()
	}
	s.logger.InfoContext(ctx, "credential verified",
		"credential_id", credentialID,
		"caller", caller,
		"first_verification", changed,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Credential returns the committed record for credentialID.
func (s *Service) Credential(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	var credential *models.Credential
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		credential, err = s.store.Credential(ctx, kv, credentialID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return credentialNotFound(credentialID)
		}
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load credential")
	}
	return credential, nil
}

// AccountCredentials returns the ids minted by account, in mint order.
func (s *Service) AccountCredentials(ctx context.Context, account id.AccountID) ([]id.CredentialID, error) {
	if account.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	var ids []id.CredentialID
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		ids, err = s.store.AccountCredentials(ctx, kv, account)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load account credentials")
	}
	return ids, nil
}

// NextCredentialID returns the id the next successful Mint will allocate.
func (s *Service) NextCredentialID(ctx context.Context) (id.CredentialID, error) {
	var next id.CredentialID
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		next, err = s.store.NextID(ctx, kv)
		return err
	})
	if err != nil {
		return 0, translate(err, "failed to load credential counter")
	}
	return next, nil
}

// Exists reports whether credentialID was minted.
func (s *Service) Exists(ctx context.Context, credentialID id.CredentialID) (bool, error) {
	var exists bool
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		exists, err = s.store.Exists(ctx, kv, credentialID)
		return err
	})
	if err != nil {
		return false, translate(err, "failed to look up credential")
	}
	return exists, nil
}

func credentialNotFound(credentialID id.CredentialID) error {
	return dErrors.New(dErrors.CodeCredentialNotFound, fmt.Sprintf("credential %d not found", credentialID))
}

// translate keeps domain errors intact and maps everything else to CodeInternal.
func translate(err error, msg string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// emit publishes event without failing the call; delivery is fire-and-forget.
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
