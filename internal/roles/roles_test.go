package roles

import "testing"

func TestRolePredicates(t *testing.T) {
	if !MarketAnalyst.IsAnalyst() {
		t.Error("market should be an analyst role")
	}
	if Bull.IsAnalyst() {
		t.Error("bull is not an analyst role")
	}
	if !ResearchManager.IsDecision() {
		t.Error("research_manager should be a decision role")
	}
	if !Trader.IsDecision() || !RiskManager.IsDecision() {
		t.Error("trader and risk_manager should be decision roles")
	}
	if Risky.IsDecision() {
		t.Error("risky is not a decision role")
	}
}

func TestParseAnalyst(t *testing.T) {
	r, err := ParseAnalyst(" Market ")
	if err != nil {
		t.Fatalf("ParseAnalyst failed: %v", err)
	}
	if r != MarketAnalyst {
		t.Errorf("got %s", r)
	}

	if _, err := ParseAnalyst("bull"); err == nil {
		t.Error("bull should not parse as an analyst")
	}
	if _, err := ParseAnalyst("weather"); err == nil {
		t.Error("unknown role should not parse")
	}
}

func TestParseAnalysts(t *testing.T) {
	got, err := ParseAnalysts("market, fundamentals,market")
	if err != nil {
		t.Fatalf("ParseAnalysts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicates collapsed, got %v", got)
	}
	if got[0] != MarketAnalyst || got[1] != FundamentalsAnalyst {
		t.Errorf("wrong roles: %v", got)
	}

	if _, err := ParseAnalysts("market,unknown"); err == nil {
		t.Error("expected error for unknown role in list")
	}
}

func TestValid(t *testing.T) {
	for _, r := range All {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("astrologer").Valid() {
		t.Error("unknown role should not be valid")
	}
}
