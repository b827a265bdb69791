package core

import "testing"

func TestNewPlanStartsEmpty(t *testing.T) {
	p := NewPlan()
	if len(p.Paths) != 0 {
		t.Errorf("NewPlan().Paths has %d entries, want 0", len(p.Paths))
	}
	if p.Feasible {
		t.Error("NewPlan().Feasible = true, want false (no paths yet)")
	}
}

func TestRecomputeSumOfCosts(t *testing.T) {
	p := NewPlan()
	p.Paths[1] = Path{0, 1, 2}
	p.Paths[2] = Path{5, 6}

	if got := p.RecomputeSumOfCosts(); got != 3 {
		t.Errorf("RecomputeSumOfCosts() = %d, want 3 (2 + 1)", got)
	}
	if p.SumOfCosts != 3 {
		t.Errorf("SumOfCosts = %d after RecomputeSumOfCosts, want 3", p.SumOfCosts)
	}
}
