package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	MovementReserved = "reserved"
	MovementReleased = "released"
	MovementAdded    = "added"
	MovementRemoved  = "removed"
)

// Movement is one committed change of a stock row's available balance.
type Movement struct {
	StockID   uint
	Direction string
	Quantity  decimal.Decimal
}

type Option func(*Service)

// WithClock overrides time.Now for bill timestamps and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMovementHook is called for every balance change after its unit of work commits.
func WithMovementHook(fn func(Movement)) Option {
	return func(s *Service) { s.onMovement = fn }
}

// Service owns the stock ledger and the bill workflows.
type Service struct {
	store      Store
	now        func() time.Time
	log        *logrus.Logger
	onMovement func(Movement)
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// unitOfWork runs fn in one transaction and publishes the movements it recorded once committed.
func (s *Service) unitOfWork(ctx context.Context, fn func(repo Repository, j *journal) error) error {
	var j journal
	err := s.store.Transaction(ctx, func(repo Repository) error {
		j = journal{}
		return fn(repo, &j)
	})
	if err != nil {
		return err
	}
	if s.onMovement != nil {
		for _, m := range j.movements {
			s.onMovement(m)
		}
	}
	return nil
}

// journal collects balance movements made inside a unit of work.
type journal struct {
	movements []Movement
}

func (j *journal) record(stockID uint, direction string, qty decimal.Decimal) {
	if qty.IsZero() {
		return
	}
	j.movements = append(j.movements, Movement{StockID: stockID, Direction: direction, Quantity: qty})
}
