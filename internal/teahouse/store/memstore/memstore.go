// Package memstore is an in-memory store.Opener, used by tests and by the
// server's "memory" driver.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

type userData struct {
	profile model.User
	balance model.Coins
	tasks   map[string]model.Task
	order   []string
	items   map[string]model.Item
	itemSeq []string
}

type state struct {
	users     map[string]*userData
	teas      map[int64]model.Tea
	nextTeaID int64
}

func (st *state) clone() *state {
	out := &state{
		users:     make(map[string]*userData, len(st.users)),
		teas:      make(map[int64]model.Tea, len(st.teas)),
		nextTeaID: st.nextTeaID,
	}
	for id, u := range st.users {
		cu := &userData{
			profile: u.profile,
			balance: u.balance,
			tasks:   make(map[string]model.Task, len(u.tasks)),
			order:   append([]string(nil), u.order...),
			items:   make(map[string]model.Item, len(u.items)),
			itemSeq: append([]string(nil), u.itemSeq...),
		}
		for k, v := range u.tasks {
			cu.tasks[k] = v
		}
		for k, v := range u.items {
			cu.items[k] = v
		}
		out.users[id] = cu
	}
	for id, t := range st.teas {
		out.teas[id] = t
	}
	return out
}

func (st *state) user(id string) *userData {
	u, ok := st.users[id]
	if !ok {
		u = &userData{
			profile: model.User{UserID: id},
			tasks:   map[string]model.Task{},
			items:   map[string]model.Item{},
		}
		st.users[id] = u
	}
	return u
}

type Store struct {
	mu    sync.Mutex
	st    *state
	fail  map[string]error
	down  bool
	opens int
}

func New() *Store {
	return &Store{
		st:   &state{users: map[string]*userData{}, teas: map[int64]model.Tea{}, nextTeaID: 1},
		fail: map[string]error{},
	}
}

// Fail makes every call of the named operation (e.g. "Credit") return err
// until cleared with a nil err.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// SetDown makes Open and Ping report store.ErrUnavailable.
func (s *Store) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// OpenSessions reports sessions opened and not yet closed.
func (s *Store) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return store.ErrUnavailable
	}
	return nil
}

func (s *Store) Open(_ context.Context, userID string) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, store.ErrUnavailable
	}
	if userID == "" {
		return nil, fmt.Errorf("memstore: empty user id")
	}
	s.opens++
	return &Session{s: s, userID: userID, lock: &s.mu, view: func() *state { return s.st }}, nil
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

type Session struct {
	s      *Store
	userID string
	lock   sync.Locker
	view   func() *state
	closed bool
	inTx   bool
}

func (ss *Session) UserID() string { return ss.userID }

func (ss *Session) Tasks() store.TaskStore   { return taskTable{ss} }
func (ss *Session) Wallet() store.Wallet     { return wallet{ss} }
func (ss *Session) Backpack() store.Backpack { return backpack{ss} }
func (ss *Session) Shop() store.Shop         { return shop{ss} }
func (ss *Session) Users() store.Users       { return users{ss} }

func (ss *Session) Close() error {
	if ss.inTx || ss.closed {
		return nil
	}
	ss.closed = true
	ss.s.mu.Lock()
	ss.s.opens--
	ss.s.mu.Unlock()
	return nil
}

func (ss *Session) Atomic(ctx context.Context, fn func(store.Session) error) error {
	if ss.inTx {
		return fn(ss)
	}
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if ss.closed {
		return fmt.Errorf("memstore: session closed")
	}
	work := ss.s.st.clone()
	tx := &Session{s: ss.s, userID: ss.userID, lock: noLock{}, view: func() *state { return work }, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	ss.s.st = work
	return nil
}

// do runs fn under the session's lock after checking injected failures.
func (ss *Session) do(op string, fn func(st *state) error) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.closed {
		return fmt.Errorf("memstore: session closed")
	}
	if err := ss.s.fail[op]; err != nil {
		return err
	}
	return fn(ss.view())
}

type taskTable struct{ ss *Session }

func (t taskTable) ListTasks(context.Context) ([]model.Task, error) {
	var out []model.Task
	err := t.ss.do("ListTasks", func(st *state) error {
		u := st.user(t.ss.userID)
		for _, id := range u.order {
			out = append(out, u.tasks[id])
		}
		return nil
	})
	return out, err
}

func (t taskTable) GetTask(_ context.Context, taskID string) (model.Task, error) {
	var out model.Task
	err := t.ss.do("GetTask", func(st *state) error {
		task, ok := st.user(t.ss.userID).tasks[taskID]
		if !ok {
			return store.ErrNotFound
		}
		out = task
		return nil
	})
	return out, err
}

func (t taskTable) CreateTask(_ context.Context, nt model.NewTask) (bool, error) {
	created := false
	err := t.ss.do("CreateTask", func(st *state) error {
		u := st.user(t.ss.userID)
		if _, ok := u.tasks[nt.TaskID]; ok {
			return nil
		}
		u.tasks[nt.TaskID] = nt.Task(t.ss.userID)
		u.order = append(u.order, nt.TaskID)
		created = true
		return nil
	})
	return created, err
}

func (t taskTable) UpdateProgress(_ context.Context, taskID string, progress int) error {
	return t.ss.do("UpdateProgress", func(st *state) error {
		u := st.user(t.ss.userID)
		task, ok := u.tasks[taskID]
		if !ok {
			return store.ErrNotFound
		}
		task.Progress = progress
		u.tasks[taskID] = task
		return nil
	})
}

func (t taskTable) CompleteTask(_ context.Context, taskID string) error {
	return t.ss.do("CompleteTask", func(st *state) error {
		u := st.user(t.ss.userID)
		task, ok := u.tasks[taskID]
		if !ok {
			return store.ErrNotFound
		}
		if task.Status == model.StatusPending {
			task.Status = model.StatusCompleted
			u.tasks[taskID] = task
		}
		return nil
	})
}

func (t taskTable) ClaimReward(_ context.Context, taskID string) (bool, error) {
	ok := false
	err := t.ss.do("ClaimReward", func(st *state) error {
		u := st.user(t.ss.userID)
		task, found := u.tasks[taskID]
		if !found || task.Status != model.StatusCompleted {
			return nil
		}
		task.Status = model.StatusClaimed
		u.tasks[taskID] = task
		ok = true
		return nil
	})
	return ok, err
}

type wallet struct{ ss *Session }

func (w wallet) Balance(context.Context) (model.Coins, error) {
	var out model.Coins
	err := w.ss.do("Balance", func(st *state) error {
		out = st.user(w.ss.userID).balance
		return nil
	})
	return out, err
}

func (w wallet) Credit(_ context.Context, amount model.Coins) error {
	return w.ss.do("Credit", func(st *state) error {
		st.user(w.ss.userID).balance += amount
		return nil
	})
}

func (w wallet) Debit(_ context.Context, amount model.Coins) error {
	return w.ss.do("Debit", func(st *state) error {
		u := st.user(w.ss.userID)
		if u.balance < amount {
			return store.ErrInsufficientFunds
		}
		u.balance -= amount
		return nil
	})
}

type backpack struct{ ss *Session }

func (b backpack) Items(context.Context) ([]model.Item, error) {
	var out []model.Item
	err := b.ss.do("Items", func(st *state) error {
		u := st.user(b.ss.userID)
		for _, name := range u.itemSeq {
			if it, ok := u.items[name]; ok && it.Count > 0 {
				out = append(out, it)
			}
		}
		return nil
	})
	return out, err
}

func (b backpack) AddItem(_ context.Context, it model.Item) error {
	return b.ss.do("AddItem", func(st *state) error {
		u := st.user(b.ss.userID)
		cur, ok := u.items[it.Name]
		if !ok {
			u.itemSeq = append(u.itemSeq, it.Name)
		}
		cur.UserID = b.ss.userID
		cur.Name = it.Name
		cur.Count += it.Count
		cur.TeaType = it.TeaType
		cur.UnitPrice = it.UnitPrice
		u.items[it.Name] = cur
		return nil
	})
}

func (b backpack) RemoveItem(_ context.Context, name string, n int) (bool, error) {
	ok := false
	err := b.ss.do("RemoveItem", func(st *state) error {
		u := st.user(b.ss.userID)
		cur, found := u.items[name]
		if !found || cur.Count < n {
			return nil
		}
		cur.Count -= n
		if cur.Count == 0 {
			delete(u.items, name)
			for i, v := range u.itemSeq {
				if v == name {
					u.itemSeq = append(u.itemSeq[:i], u.itemSeq[i+1:]...)
					break
				}
			}
		} else {
			u.items[name] = cur
		}
		ok = true
		return nil
	})
	return ok, err
}

type shop struct{ ss *Session }

func (sh shop) ListTeas(context.Context) ([]model.Tea, error) {
	var out []model.Tea
	err := sh.ss.do("ListTeas", func(st *state) error {
		for _, t := range st.teas {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (sh shop) GetTea(_ context.Context, id int64) (model.Tea, error) {
	var out model.Tea
	err := sh.ss.do("GetTea", func(st *state) error {
		t, ok := st.teas[id]
		if !ok {
			return store.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

func (sh shop) AddTea(_ context.Context, t model.Tea) (int64, error) {
	var id int64
	err := sh.ss.do("AddTea", func(st *state) error {
		id = st.nextTeaID
		st.nextTeaID++
		t.ID = id
		st.teas[id] = t
		return nil
	})
	return id, err
}

func (sh shop) RemoveTea(_ context.Context, id int64) error {
	return sh.ss.do("RemoveTea", func(st *state) error {
		if _, ok := st.teas[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.teas, id)
		return nil
	})
}

func (sh shop) AdjustStock(_ context.Context, id int64, delta int) (model.Tea, error) {
	var out model.Tea
	err := sh.ss.do("AdjustStock", func(st *state) error {
		t, ok := st.teas[id]
		if !ok {
			return store.ErrNotFound
		}
		if t.Stock+delta < 0 {
			return store.ErrInsufficientStock
		}
		t.Stock += delta
		st.teas[id] = t
		out = t
		return nil
	})
	return out, err
}

type users struct{ ss *Session }

func (us users) Profile(context.Context) (model.User, error) {
	var out model.User
	err := us.ss.do("Profile", func(st *state) error {
		out = st.user(us.ss.userID).profile
		return nil
	})
	return out, err
}

func (us users) RecordSignIn(_ context.Context, day string, reward model.Coins) (bool, error) {
	ok := false
	err := us.ss.do("RecordSignIn", func(st *state) error {
		u := st.user(us.ss.userID)
		if u.profile.LastSignIn == day {
			return nil
		}
		u.profile.LastSignIn = day
		u.profile.SignInCount++
		u.profile.LastReward = reward
		u.profile.TotalRewards += reward
		ok = true
		return nil
	})
	return ok, err
}
