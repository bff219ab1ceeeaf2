// Package service implements the ledger engine: every balance-mutating
// operation runs as a single consistency unit, and domain events go out only
// after the unit commits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/metrics"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	dErrors "vaultbank/pkg/domain-errors"
	"vaultbank/pkg/platform/sentinel"
)

type Service struct {
	store           ports.Store
	notifier        ports.Notifier
	logger          *slog.Logger
	metrics         *metrics.Metrics
	defaultCurrency string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithDefaultCurrency(currency string) Option {
	return func(s *Service) {
		s.defaultCurrency = currency
	}
}

func New(store ports.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}

	svc := &Service{
		store:           store,
		logger:          slog.Default(),
		defaultCurrency: "USD",
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.notifier == nil {
		svc.notifier = events.NewLogNotifier(svc.logger)
	}
	return svc, nil
}

// publish hands a committed event to the notifier. It runs strictly after
// the unit commits and cannot fail the operation.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	s.notifier.Publish(ctx, event)
	if s.metrics != nil {
		s.metrics.EventsPublished.Inc()
	}
}

func (s *Service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Observe(operation, outcome, time.Since(start).Seconds())
}

// translateNotFound maps a store sentinel onto a coded not-found error,
// passing through errors that already carry a code.
func translateNotFound(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger storage failure")
}

// Transactions returns a user's ledger entries, newest last.
func (s *Service) Transactions(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	txns, err := s.store.ListTransactionsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	return txns, nil
}

// Transaction loads a single ledger entry.
func (s *Service) Transaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.store.TransactionByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "transaction not found")
	}
	return txn, nil
}

// Account returns the user's account snapshot.
func (s *Service) Account(ctx context.Context, userID int64) (*models.Account, error) {
	acct, err := s.store.AccountByOwner(ctx, userID)
	if err != nil {
		return nil, translateNotFound(err, "account not found")
	}
	return acct, nil
}
