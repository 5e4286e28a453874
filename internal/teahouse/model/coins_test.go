package model

import (
	"encoding/json"
	"testing"
)

func TestCoins_String(t *testing.T) {
	cases := map[Coins]string{0: "0.00", 5000: "50.00", 7525: "75.25", -4005: "-40.05", 7: "0.07"}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Fatalf("%d: got %q want %q", int64(c), got, want)
		}
	}
}

func TestCoins_JSON(t *testing.T) {
	b, err := json.Marshal(Task{TaskID: "daily_drink_tea", Reward: WholeCoins(50)})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["reward"] != 50.0 {
		t.Fatalf("reward on the wire: %v in %s", raw["reward"], b)
	}

	var e LedgerEntry
	if err := json.Unmarshal([]byte(`{"amount":-40.05}`), &e); err != nil || e.Amount != -4005 {
		t.Fatalf("amount: %d %v", e.Amount, err)
	}
	if err := json.Unmarshal([]byte(`{"amount":"12.5"}`), &e); err != nil || e.Amount != 1250 {
		t.Fatalf("quoted amount: %d %v", e.Amount, err)
	}
	if err := json.Unmarshal([]byte(`{"amount":true}`), &e); err == nil {
		t.Fatalf("expected error")
	}
}
