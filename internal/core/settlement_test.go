package core

import (
	"math"
	"testing"
	"time"
)

func meal(member string, count float64) MealEntry {
	return MealEntry{Member: member, Count: count, Day: NewDate(2026, 8, 1), RecordedAt: time.Now()}
}

func expense(member string, cents int64, cat Category) ExpenseEntry {
	return ExpenseEntry{Member: member, Amount: Money{Cents: cents}, Category: cat, Day: NewDate(2026, 8, 1), RecordedAt: time.Now()}
}

func TestComputeSettlementEmpty(t *testing.T) {
	res := ComputeSettlement(nil, nil, Roster{"P1", "P2"})
	if res.Status != SettlementEmpty {
		t.Fatalf("status = %s, want %s", res.Status, SettlementEmpty)
	}
}

func TestComputeSettlementNoMealsLogged(t *testing.T) {
	// One market expense of 50 but no meals: the meal rate is undefined.
	res := ComputeSettlement(nil, []ExpenseEntry{expense("P1", 5000, Market)}, Roster{"P1", "P2"})
	if res.Status != SettlementNoMeals {
		t.Fatalf("status = %s, want %s", res.Status, SettlementNoMeals)
	}
	if res.TotalMarket.Cents != 5000 {
		t.Fatalf("total market = %d, want 5000", res.TotalMarket.Cents)
	}
	if res.MealRateCents != 0 {
		t.Fatalf("meal rate must not be computed, got %v", res.MealRateCents)
	}
}

func TestComputeSettlementMarketOnly(t *testing.T) {
	// P1 and P2 log 10 meals each; P1 pays 200.00 market.
	// mealRate = 200/20 = 10 per meal, each allocated 100.
	meals := []MealEntry{meal("P1", 10), meal("P2", 10)}
	expenses := []ExpenseEntry{expense("P1", 20000, Market)}

	res := ComputeSettlement(meals, expenses, Roster{"P1", "P2"})
	if res.Status != SettlementReady {
		t.Fatalf("status = %s, want %s", res.Status, SettlementReady)
	}
	if res.TotalMeals != 20 {
		t.Fatalf("total meals = %v, want 20", res.TotalMeals)
	}
	if res.MealRateCents != 1000 {
		t.Fatalf("meal rate = %v, want 1000", res.MealRateCents)
	}
	if res.UtilityShareCents != 0 {
		t.Fatalf("utility share = %v, want 0", res.UtilityShareCents)
	}

	p1, p2 := res.Shares[0], res.Shares[1]
	if p1.BalanceCents != 10000 {
		t.Errorf("P1 balance = %v, want +10000", p1.BalanceCents)
	}
	if p2.BalanceCents != -10000 {
		t.Errorf("P2 balance = %v, want -10000", p2.BalanceCents)
	}
}

func TestComputeSettlementWithUtility(t *testing.T) {
	// Same as the market-only case plus a 40.00 utility bill paid by P1.
	// utilityShare = 40/2 = 20 each, allocated 120 each.
	meals := []MealEntry{meal("P1", 10), meal("P2", 10)}
	expenses := []ExpenseEntry{
		expense("P1", 20000, Market),
		expense("P1", 4000, Utility),
	}

	res := ComputeSettlement(meals, expenses, Roster{"P1", "P2"})
	if res.Status != SettlementReady {
		t.Fatalf("status = %s, want %s", res.Status, SettlementReady)
	}
	if res.UtilityShareCents != 2000 {
		t.Fatalf("utility share = %v, want 2000", res.UtilityShareCents)
	}
	p1, p2 := res.Shares[0], res.Shares[1]
	if p1.AllocatedCents != 12000 || p2.AllocatedCents != 12000 {
		t.Fatalf("allocated = %v/%v, want 12000 each", p1.AllocatedCents, p2.AllocatedCents)
	}
	if p1.BalanceCents != 12000 {
		t.Errorf("P1 balance = %v, want +12000", p1.BalanceCents)
	}
	if p2.BalanceCents != -12000 {
		t.Errorf("P2 balance = %v, want -12000", p2.BalanceCents)
	}
	if p1.MarketPaid.Cents != 20000 || p1.UtilityPaid.Cents != 4000 || p1.TotalPaid.Cents != 24000 {
		t.Errorf("P1 paid breakdown = %+v", p1)
	}
}

func TestComputeSettlementConservation(t *testing.T) {
	// Sum of allocated costs equals the pooled totals; no money appears or
	// disappears regardless of how unevenly meals and payments fall.
	meals := []MealEntry{meal("A", 7.5), meal("B", 3), meal("C", 11), meal("A", 2)}
	expenses := []ExpenseEntry{
		expense("A", 12345, Market),
		expense("B", 999, Market),
		expense("C", 20001, Utility),
		expense("B", 4321, Utility),
	}
	roster := Roster{"A", "B", "C", "D"}

	res := ComputeSettlement(meals, expenses, roster)
	if res.Status != SettlementReady {
		t.Fatalf("status = %s", res.Status)
	}

	var allocated, balance, paid float64
	for _, s := range res.Shares {
		allocated += s.AllocatedCents
		balance += s.BalanceCents
		paid += float64(s.TotalPaid.Cents)
	}
	total := float64(res.TotalMarket.Cents + res.TotalUtility.Cents)
	if math.Abs(allocated-total) > 1e-6 {
		t.Errorf("sum(allocated) = %v, want %v", allocated, total)
	}
	if math.Abs(balance-(paid-allocated)) > 1e-6 {
		t.Errorf("sum(balance) = %v, want %v", balance, paid-allocated)
	}
	// Everyone paid in, so the balances themselves cancel out.
	if math.Abs(balance) > 1e-6 {
		t.Errorf("sum(balance) = %v, want 0", balance)
	}
}

func TestComputeSettlementRosterOrderAndCoverage(t *testing.T) {
	roster := Roster{"Zed", "Alice", "Mina"}
	res := ComputeSettlement([]MealEntry{meal("Mina", 4)}, []ExpenseEntry{expense("Mina", 100, Market)}, roster)
	if len(res.Shares) != len(roster) {
		t.Fatalf("shares = %d, want %d", len(res.Shares), len(roster))
	}
	for i, s := range res.Shares {
		if s.Member != roster[i] {
			t.Fatalf("share %d = %s, want %s (roster order)", i, s.Member, roster[i])
		}
	}
	if res.Shares[0].MealCount != 0 || res.Shares[1].MealCount != 0 {
		t.Errorf("members without entries must still appear with zero fields")
	}
}

func TestComputeSettlementSkipsUnknownMembers(t *testing.T) {
	// Entries from outside the roster are dropped from both folds so the
	// conservation property holds over the roster.
	meals := []MealEntry{meal("P1", 10), meal("ghost", 99)}
	expenses := []ExpenseEntry{expense("P1", 1000, Market), expense("ghost", 77777, Utility)}

	res := ComputeSettlement(meals, expenses, Roster{"P1"})
	if res.TotalMeals != 10 {
		t.Errorf("total meals = %v, want 10", res.TotalMeals)
	}
	if res.TotalMarket.Cents != 1000 || res.TotalUtility.Cents != 0 {
		t.Errorf("totals = %d/%d, want 1000/0", res.TotalMarket.Cents, res.TotalUtility.Cents)
	}
}

func TestComputeSettlementIdempotent(t *testing.T) {
	meals := []MealEntry{meal("P1", 10), meal("P2", 10)}
	expenses := []ExpenseEntry{expense("P1", 20000, Market), expense("P2", 4000, Utility)}
	roster := Roster{"P1", "P2"}

	a := ComputeSettlement(meals, expenses, roster)
	b := ComputeSettlement(meals, expenses, roster)
	if a.Status != b.Status || a.MealRateCents != b.MealRateCents || len(a.Shares) != len(b.Shares) {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
	for i := range a.Shares {
		if a.Shares[i] != b.Shares[i] {
			t.Fatalf("share %d differs: %+v vs %+v", i, a.Shares[i], b.Shares[i])
		}
	}
}
