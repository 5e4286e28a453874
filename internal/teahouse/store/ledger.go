package store

import "teahouse.bot/internal/teahouse/model"

// Ledger receives economy events after they commit.
type Ledger interface {
	Append(e model.LedgerEntry) error
}

type NopLedger struct{}

func (NopLedger) Append(model.LedgerEntry) error { return nil }
