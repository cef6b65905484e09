package graph

import (
	"testing"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// driveDebate routes from a fresh cursor until the stage hands off,
// returning the visited turn nodes.
func driveDebate(t *testing.T, maxRounds int) []state.Node {
	t.Helper()
	var seq []state.Node
	c := NewDebateCursor()
	for i := 0; i < 2*maxRounds+10; i++ {
		var next state.Node
		c, next = RouteDebate(c, maxRounds)
		if next == state.NodeResearchManager {
			return seq
		}
		seq = append(seq, next)
	}
	t.Fatalf("debate stage never terminated for maxRounds=%d", maxRounds)
	return nil
}

func driveRisk(t *testing.T, maxRounds int) []state.Node {
	t.Helper()
	var seq []state.Node
	c := NewRiskCursor()
	for i := 0; i < 3*maxRounds+10; i++ {
		var next state.Node
		c, next = RouteRisk(c, maxRounds)
		if next == state.NodeRiskManager {
			return seq
		}
		seq = append(seq, next)
	}
	t.Fatalf("risk stage never terminated for maxRounds=%d", maxRounds)
	return nil
}

func TestDebateAlternation(t *testing.T) {
	for n := 1; n <= 4; n++ {
		seq := driveDebate(t, n)
		if len(seq) != 2*n {
			t.Fatalf("maxRounds=%d: %d turns routed, want %d", n, len(seq), 2*n)
		}
		for i, node := range seq {
			want := state.NodeBullResearcher
			if i%2 == 1 {
				want = state.NodeBearResearcher
			}
			if node != want {
				t.Errorf("maxRounds=%d turn %d = %s, want %s", n, i, node, want)
			}
		}
	}
}

func TestRiskRotation(t *testing.T) {
	cycle := []state.Node{state.NodeRiskyAnalyst, state.NodeSafeAnalyst, state.NodeNeutralAnalyst}
	for n := 1; n <= 3; n++ {
		seq := driveRisk(t, n)
		if len(seq) != 3*n {
			t.Fatalf("maxRounds=%d: %d turns routed, want %d", n, len(seq), 3*n)
		}
		for i, node := range seq {
			if node != cycle[i%3] {
				t.Errorf("maxRounds=%d turn %d = %s, want %s", n, i, node, cycle[i%3])
			}
		}
	}
}

// A cursor at its cap keeps handing off without advancing, so a stray
// extra router call cannot restart the stage.
func TestRoutersIdempotentAtCap(t *testing.T) {
	c := DebateCursor{Speaker: roles.Bear, RoundCount: 2}
	for i := 0; i < 3; i++ {
		after, next := RouteDebate(c, 1)
		if next != state.NodeResearchManager {
			t.Fatalf("call %d routed to %s, want research_manager", i, next)
		}
		if after != c {
			t.Fatalf("call %d advanced a capped cursor: %+v", i, after)
		}
	}

	r := RiskCursor{Speaker: roles.Neutral, RoundCount: 3}
	for i := 0; i < 3; i++ {
		after, next := RouteRisk(r, 1)
		if next != state.NodeRiskManager {
			t.Fatalf("call %d routed to %s, want risk_manager", i, next)
		}
		if after != r {
			t.Fatalf("call %d advanced a capped cursor: %+v", i, after)
		}
	}
}

func turns(speakers ...roles.Role) []state.Turn {
	out := make([]state.Turn, len(speakers))
	for i, s := range speakers {
		out[i] = state.Turn{Speaker: s, Content: "x"}
	}
	return out
}

func TestDebateCursorFromHistory(t *testing.T) {
	cases := []struct {
		name    string
		history []state.Turn
		max     int
		want    state.Node
	}{
		{"empty starts with bull", nil, 1, state.NodeBullResearcher},
		{"after bull comes bear", turns(roles.Bull), 1, state.NodeBearResearcher},
		{"full round at cap hands off", turns(roles.Bull, roles.Bear), 1, state.NodeResearchManager},
		{"full round below cap continues", turns(roles.Bull, roles.Bear), 2, state.NodeBullResearcher},
		{"odd mid-round resumes with bear", turns(roles.Bull, roles.Bear, roles.Bull), 2, state.NodeBearResearcher},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next := RouteDebate(DebateCursorFromHistory(tc.history), tc.max)
			if next != tc.want {
				t.Errorf("next = %s, want %s", next, tc.want)
			}
		})
	}
}

func TestRiskCursorFromHistory(t *testing.T) {
	cases := []struct {
		name    string
		history []state.Turn
		max     int
		want    state.Node
	}{
		{"empty starts with risky", nil, 1, state.NodeRiskyAnalyst},
		{"after risky comes safe", turns(roles.Risky), 1, state.NodeSafeAnalyst},
		{"after safe comes neutral", turns(roles.Risky, roles.Safe), 1, state.NodeNeutralAnalyst},
		{"full cycle at cap hands off", turns(roles.Risky, roles.Safe, roles.Neutral), 1, state.NodeRiskManager},
		{"full cycle below cap wraps to risky", turns(roles.Risky, roles.Safe, roles.Neutral), 2, state.NodeRiskyAnalyst},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next := RouteRisk(RiskCursorFromHistory(tc.history), tc.max)
			if next != tc.want {
				t.Errorf("next = %s, want %s", next, tc.want)
			}
		})
	}
}
