package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

const taskCols = `user_id, task_id, name, description, progress, target, reward, status, category`

type taskTable struct{ ss *Session }

func (t taskTable) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	err := t.ss.sel(ctx, &out, `SELECT `+taskCols+` FROM tasks WHERE user_id = ? ORDER BY id`, t.ss.userID)
	return out, wrap("list tasks", err)
}

func (t taskTable) GetTask(ctx context.Context, taskID string) (model.Task, error) {
	var out model.Task
	err := t.ss.get(ctx, &out, `SELECT `+taskCols+` FROM tasks WHERE user_id = ? AND task_id = ?`, t.ss.userID, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, store.ErrNotFound
	}
	return out, wrap("get task", err)
}

func (t taskTable) CreateTask(ctx context.Context, nt model.NewTask) (bool, error) {
	n, err := t.ss.exec(ctx, `
		INSERT INTO tasks (user_id, task_id, name, description, progress, target, reward, status, category)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)
		ON CONFLICT (user_id, task_id) DO NOTHING`,
		t.ss.userID, nt.TaskID, nt.Name, nt.Description, nt.Target, int64(nt.Reward),
		string(model.StatusPending), string(nt.Category))
	if err != nil {
		return false, wrap("create task", err)
	}
	return n == 1, nil
}

func (t taskTable) UpdateProgress(ctx context.Context, taskID string, progress int) error {
	n, err := t.ss.exec(ctx, `UPDATE tasks SET progress = ? WHERE user_id = ? AND task_id = ?`,
		progress, t.ss.userID, taskID)
	if err != nil {
		return wrap("update progress", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t taskTable) CompleteTask(ctx context.Context, taskID string) error {
	n, err := t.ss.exec(ctx, `UPDATE tasks SET status = ? WHERE user_id = ? AND task_id = ? AND status = ?`,
		string(model.StatusCompleted), t.ss.userID, taskID, string(model.StatusPending))
	if err != nil {
		return wrap("complete task", err)
	}
	if n == 0 {
		if _, err := t.GetTask(ctx, taskID); err != nil {
			return err
		}
	}
	return nil
}

func (t taskTable) ClaimReward(ctx context.Context, taskID string) (bool, error) {
	n, err := t.ss.exec(ctx, `UPDATE tasks SET status = ? WHERE user_id = ? AND task_id = ? AND status = ?`,
		string(model.StatusClaimed), t.ss.userID, taskID, string(model.StatusCompleted))
	if err != nil {
		return false, wrap("claim reward", err)
	}
	return n == 1, nil
}

type wallet struct{ ss *Session }

func (w wallet) Balance(ctx context.Context) (model.Coins, error) {
	var bal int64
	err := w.ss.get(ctx, &bal, `SELECT balance FROM wallets WHERE user_id = ?`, w.ss.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return model.Coins(bal), wrap("balance", err)
}

func (w wallet) Credit(ctx context.Context, amount model.Coins) error {
	_, err := w.ss.exec(ctx, `
		INSERT INTO wallets (user_id, balance) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + excluded.balance`,
		w.ss.userID, int64(amount))
	return wrap("credit", err)
}

func (w wallet) Debit(ctx context.Context, amount model.Coins) error {
	if amount <= 0 {
		return nil
	}
	n, err := w.ss.exec(ctx, `UPDATE wallets SET balance = balance - ? WHERE user_id = ? AND balance >= ?`,
		int64(amount), w.ss.userID, int64(amount))
	if err != nil {
		return wrap("debit", err)
	}
	if n == 0 {
		return store.ErrInsufficientFunds
	}
	return nil
}

const itemCols = `user_id, name, count, tea_type, unit_price`

type backpack struct{ ss *Session }

func (b backpack) Items(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := b.ss.sel(ctx, &out, `SELECT `+itemCols+` FROM items WHERE user_id = ? AND count > 0 ORDER BY id`, b.ss.userID)
	return out, wrap("items", err)
}

func (b backpack) AddItem(ctx context.Context, it model.Item) error {
	_, err := b.ss.exec(ctx, `
		INSERT INTO items (user_id, name, count, tea_type, unit_price) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET
			count = items.count + excluded.count,
			tea_type = excluded.tea_type,
			unit_price = excluded.unit_price`,
		b.ss.userID, it.Name, it.Count, it.TeaType, int64(it.UnitPrice))
	return wrap("add item", err)
}

func (b backpack) RemoveItem(ctx context.Context, name string, n int) (bool, error) {
	rows, err := b.ss.exec(ctx, `UPDATE items SET count = count - ? WHERE user_id = ? AND name = ? AND count >= ?`,
		n, b.ss.userID, name, n)
	if err != nil {
		return false, wrap("remove item", err)
	}
	if rows == 0 {
		return false, nil
	}
	if _, err := b.ss.exec(ctx, `DELETE FROM items WHERE user_id = ? AND name = ? AND count <= 0`, b.ss.userID, name); err != nil {
		return false, wrap("remove item", err)
	}
	return true, nil
}

const teaCols = `id, name, stock, tea_type, price, description`

type shop struct{ ss *Session }

func (sh shop) ListTeas(ctx context.Context) ([]model.Tea, error) {
	var out []model.Tea
	err := sh.ss.sel(ctx, &out, `SELECT `+teaCols+` FROM teas ORDER BY id`)
	return out, wrap("list teas", err)
}

func (sh shop) GetTea(ctx context.Context, id int64) (model.Tea, error) {
	var out model.Tea
	err := sh.ss.get(ctx, &out, `SELECT `+teaCols+` FROM teas WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tea{}, store.ErrNotFound
	}
	return out, wrap("get tea", err)
}

func (sh shop) AddTea(ctx context.Context, t model.Tea) (int64, error) {
	var id int64
	err := sh.ss.get(ctx, &id, `
		INSERT INTO teas (name, stock, tea_type, price, description) VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		t.Name, t.Stock, t.TeaType, int64(t.Price), t.Description)
	return id, wrap("add tea", err)
}

func (sh shop) RemoveTea(ctx context.Context, id int64) error {
	n, err := sh.ss.exec(ctx, `DELETE FROM teas WHERE id = ?`, id)
	if err != nil {
		return wrap("remove tea", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (sh shop) AdjustStock(ctx context.Context, id int64, delta int) (model.Tea, error) {
	n, err := sh.ss.exec(ctx, `UPDATE teas SET stock = stock + ? WHERE id = ? AND stock + ? >= 0`, delta, id, delta)
	if err != nil {
		return model.Tea{}, wrap("adjust stock", err)
	}
	t, err := sh.GetTea(ctx, id)
	if err != nil {
		return model.Tea{}, err
	}
	if n == 0 {
		return model.Tea{}, store.ErrInsufficientStock
	}
	return t, nil
}

type users struct{ ss *Session }

func (us users) Profile(ctx context.Context) (model.User, error) {
	var out model.User
	err := us.ss.get(ctx, &out, `
		SELECT user_id, sign_in_count, last_sign_in, last_reward, total_rewards
		FROM users WHERE user_id = ?`, us.ss.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{UserID: us.ss.userID}, nil
	}
	return out, wrap("profile", err)
}

func (us users) RecordSignIn(ctx context.Context, day string, reward model.Coins) (bool, error) {
	if _, err := us.ss.exec(ctx, `INSERT INTO users (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`, us.ss.userID); err != nil {
		return false, wrap("record sign-in", err)
	}
	n, err := us.ss.exec(ctx, `
		UPDATE users SET
			last_sign_in = ?,
			sign_in_count = sign_in_count + 1,
			last_reward = ?,
			total_rewards = total_rewards + ?
		WHERE user_id = ? AND last_sign_in <> ?`,
		day, int64(reward), int64(reward), us.ss.userID, day)
	if err != nil {
		return false, wrap("record sign-in", err)
	}
	return n == 1, nil
}
