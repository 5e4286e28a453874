// Package tasks runs the quest lifecycle: seeding each user's catalog,
// advancing progress from gameplay actions, resolving free text to a task,
// and paying out rewards exactly once.
//
// A task moves pending -> completed -> claimed and never back. Progress is
// clamped to the target; completion never pays out by itself.
package tasks

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

var (
	ErrNotFound       = errors.New("task not found")
	ErrNotCompleted   = errors.New("task not yet completed")
	ErrAlreadyClaimed = errors.New("task reward already claimed")
)

type Engine struct {
	cat    catalogs.TaskCatalog
	log    zerolog.Logger
	now    func() time.Time
	loc    *time.Location
	ledger store.Ledger
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocation sets the time zone that decides where a calendar day starts.
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

func WithLedger(l store.Ledger) Option { return func(e *Engine) { e.ledger = l } }

func New(cat catalogs.TaskCatalog, opts ...Option) *Engine {
	e := &Engine{
		cat:    cat,
		log:    zerolog.Nop(),
		now:    time.Now,
		loc:    time.Local,
		ledger: store.NopLedger{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	return e
}

// Today is the current time in the engine's location.
func (e *Engine) Today() time.Time { return e.now().In(e.loc) }

func (e *Engine) Catalog() catalogs.TaskCatalog { return e.cat }

// Label is how a task is listed when the user's text matched nothing.
func Label(t model.Task) string {
	if isChallengeName(t.Name) {
		return t.Name
	}
	return t.Name + " (" + t.Description + ")"
}
