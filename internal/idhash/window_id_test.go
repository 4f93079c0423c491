package idhash

import "testing"

func TestComputeWindowID_Deterministic(t *testing.T) {
	a := ComputeWindowID("BTC", "epoch-1", 1700000000000, 43000.5)
	b := ComputeWindowID("BTC", "epoch-1", 1700000000000, 43000.5)
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestComputeWindowID_DistinctInputs(t *testing.T) {
	base := ComputeWindowID("BTC", "epoch-1", 1700000000000, 43000.5)

	variants := []string{
		ComputeWindowID("ETH", "epoch-1", 1700000000000, 43000.5),
		ComputeWindowID("BTC", "epoch-2", 1700000000000, 43000.5),
		ComputeWindowID("BTC", "epoch-1", 1700000300000, 43000.5),
		ComputeWindowID("BTC", "epoch-1", 1700000000000, 43001.0),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base ID", i)
		}
	}
}

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("w1", "UP", 1000, 2000)
	b := ComputeTradeID("w1", "UP", 1000, 2000)
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if a == ComputeTradeID("w1", "DOWN", 1000, 2000) {
		t.Error("token should change the trade ID")
	}
}
