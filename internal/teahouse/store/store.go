// Package store declares the storage collaborator the tea house runs against.
// Adapters live in persistence/sqlstore and store/memstore.
package store

import (
	"context"
	"errors"

	"teahouse.bot/internal/teahouse/model"
)

var (
	// ErrUnavailable means the collaborator is missing or not answering.
	ErrUnavailable = errors.New("store unavailable")
	// ErrTransient wraps I/O failures of a single read or write.
	ErrTransient = errors.New("transient store error")

	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Opener interface {
	// Open returns a session scoped to one user. Callers must Close it.
	Open(ctx context.Context, userID string) (Session, error)
	Ping(ctx context.Context) error
}

type Session interface {
	UserID() string

	Tasks() TaskStore
	Wallet() Wallet
	Backpack() Backpack
	Shop() Shop
	Users() Users

	// Atomic runs fn against a session whose writes commit together or not at all.
	Atomic(ctx context.Context, fn func(Session) error) error
	Close() error
}

type TaskStore interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	// GetTask returns ErrNotFound when the user has no such row.
	GetTask(ctx context.Context, taskID string) (model.Task, error)
	// CreateTask inserts the row only if (user, task id) is absent.
	CreateTask(ctx context.Context, t model.NewTask) (created bool, err error)
	UpdateProgress(ctx context.Context, taskID string, progress int) error
	// CompleteTask moves a pending row to completed.
	CompleteTask(ctx context.Context, taskID string) error
	// ClaimReward moves a completed row to claimed. False means the row was
	// not in the completed state.
	ClaimReward(ctx context.Context, taskID string) (bool, error)
}

type Wallet interface {
	Balance(ctx context.Context) (model.Coins, error)
	Credit(ctx context.Context, amount model.Coins) error
	// Debit returns ErrInsufficientFunds instead of going negative.
	Debit(ctx context.Context, amount model.Coins) error
}

type Backpack interface {
	Items(ctx context.Context) ([]model.Item, error)
	// AddItem adds it.Count units, refreshing type and unit price.
	AddItem(ctx context.Context, it model.Item) error
	// RemoveItem removes n units; false when fewer than n are held.
	RemoveItem(ctx context.Context, name string, n int) (bool, error)
}

type Shop interface {
	// ListTeas returns teas ordered by id.
	ListTeas(ctx context.Context) ([]model.Tea, error)
	GetTea(ctx context.Context, id int64) (model.Tea, error)
	AddTea(ctx context.Context, t model.Tea) (int64, error)
	RemoveTea(ctx context.Context, id int64) error
	// AdjustStock adds delta to the stock; ErrInsufficientStock if it would go negative.
	AdjustStock(ctx context.Context, id int64, delta int) (model.Tea, error)
}

type Users interface {
	Profile(ctx context.Context) (model.User, error)
	// RecordSignIn stores a sign-in for day (YYYY-MM-DD); false if already signed that day.
	RecordSignIn(ctx context.Context, day string, reward model.Coins) (bool, error)
}
