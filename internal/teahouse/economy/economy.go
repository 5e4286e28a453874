// Package economy implements the tea house gameplay around the wallet:
// shop and purchases, the backpack, drinking, daily sign-in, collection
// rating and shop administration. Gameplay actions are reported to the task
// engine; their results never depend on task bookkeeping succeeding.
package economy

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/tasks"
)

var (
	ErrUnknownTea     = errors.New("no such tea in the shop")
	ErrBadQuantity    = errors.New("quantity must be positive")
	ErrNotInBackpack  = errors.New("tea not in backpack")
	ErrEmptyBackpack  = errors.New("backpack is empty")
	ErrInvalidListing = errors.New("invalid listing")
)

// StockError reports a purchase larger than the shop's stock.
type StockError struct {
	Stock int
}

func (e *StockError) Error() string { return fmt.Sprintf("only %d in stock", e.Stock) }

func (e *StockError) Unwrap() error { return store.ErrInsufficientStock }

// FundsError reports a purchase the wallet cannot cover.
type FundsError struct {
	Need model.Coins
	Have model.Coins
}

func (e *FundsError) Error() string { return fmt.Sprintf("need %s, have %s", e.Need, e.Have) }

func (e *FundsError) Unwrap() error { return store.ErrInsufficientFunds }

type Service struct {
	tasks   *tasks.Engine
	ratings catalogs.RatingCatalog
	log     zerolog.Logger
	ledger  store.Ledger

	signInMin model.Coins
	signInMax model.Coins

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func WithLedger(l store.Ledger) Option { return func(s *Service) { s.ledger = l } }

// WithRand fixes the source of sign-in rewards.
func WithRand(r *rand.Rand) Option { return func(s *Service) { s.rnd = r } }

// WithSignInReward sets the inclusive range sign-in rewards are drawn from.
func WithSignInReward(lo, hi model.Coins) Option {
	return func(s *Service) { s.signInMin, s.signInMax = lo, hi }
}

func New(engine *tasks.Engine, ratings catalogs.RatingCatalog, opts ...Option) *Service {
	s := &Service{
		tasks:     engine,
		ratings:   ratings,
		log:       zerolog.Nop(),
		ledger:    store.NopLedger{},
		signInMin: model.WholeCoins(50),
		signInMax: model.WholeCoins(100),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.signInMax < s.signInMin {
		s.signInMin, s.signInMax = s.signInMax, s.signInMin
	}
	return s
}

func (s *Service) Tasks() *tasks.Engine { return s.tasks }

func (s *Service) Ratings() catalogs.RatingCatalog { return s.ratings }

func (s *Service) record(e model.LedgerEntry) {
	e.Time = s.tasks.Today().UTC()
	if err := s.ledger.Append(e); err != nil {
		s.log.Warn().Err(err).Str("user_id", e.UserID).Str("kind", string(e.Kind)).Msg("ledger append failed")
	}
}

func (s *Service) randomReward() model.Coins {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := int64(s.signInMax - s.signInMin)
	return s.signInMin + model.Coins(s.rnd.Int63n(span+1))
}
