package core

const (
	// SettlementReady means totals, rate and balances were computed.
	SettlementReady SettlementStatus = "ready"
	// SettlementEmpty means no entries exist at all; there is nothing to settle.
	SettlementEmpty SettlementStatus = "empty"
	// SettlementNoMeals means expenses exist but no meals were logged, so the
	// per-meal rate is undefined and balances cannot be computed.
	SettlementNoMeals SettlementStatus = "meals_required"
)

type (
	SettlementStatus string

	// MemberShare is one member's line in the settlement breakdown.
	MemberShare struct {
		Member      string
		MealCount   float64
		MarketPaid  Money
		UtilityPaid Money
		TotalPaid   Money
		// AllocatedCents and BalanceCents carry fractional cents; they are
		// derived from the meal rate division and rounded only for display.
		AllocatedCents float64
		BalanceCents   float64
	}

	// Settlement is the full derived result for one snapshot of the event set.
	// It is recomputed fresh on every request and holds no lifecycle of its own.
	Settlement struct {
		Status            SettlementStatus
		TotalMarket       Money
		TotalUtility      Money
		TotalMeals        float64
		MealRateCents     float64
		UtilityShareCents float64
		Shares            []MemberShare
	}
)

// Settled reports whether the member's balance is exactly zero.
func (s MemberShare) Settled() bool {
	return s.BalanceCents == 0
}

// ComputeSettlement folds the full event set into per-member balances under
// the mess rule: market spend is divided by meals consumed, utility spend is
// split equally across the roster regardless of meal count.
//
// The function is pure and deterministic. Shares come back in roster order and
// cover every roster member, including those with no entries. Entries owned by
// members outside the roster are skipped entirely so that the sum of allocated
// costs always equals the pooled totals.
//
// Two named non-numeric outcomes exist instead of errors: SettlementEmpty when
// both entry lists are empty, and SettlementNoMeals when expenses exist but
// total meals is zero (the meal rate would be a division by zero).
func ComputeSettlement(meals []MealEntry, expenses []ExpenseEntry, roster Roster) Settlement {
	if len(meals) == 0 && len(expenses) == 0 || len(roster) == 0 {
		return Settlement{Status: SettlementEmpty}
	}

	shares := make([]MemberShare, len(roster))
	index := make(map[string]int, len(roster))
	for i, m := range roster {
		shares[i] = MemberShare{Member: m}
		index[m] = i
	}

	var totalMarket, totalUtility int64
	for _, e := range expenses {
		i, ok := index[e.Member]
		if !ok {
			continue
		}
		switch e.Category {
		case Utility:
			totalUtility += e.Amount.Cents
			shares[i].UtilityPaid.Cents += e.Amount.Cents
		default:
			totalMarket += e.Amount.Cents
			shares[i].MarketPaid.Cents += e.Amount.Cents
		}
		shares[i].TotalPaid.Cents += e.Amount.Cents
	}

	var totalMeals float64
	for _, m := range meals {
		i, ok := index[m.Member]
		if !ok {
			continue
		}
		totalMeals += m.Count
		shares[i].MealCount += m.Count
	}

	if totalMeals == 0 {
		return Settlement{
			Status:       SettlementNoMeals,
			TotalMarket:  Money{Cents: totalMarket},
			TotalUtility: Money{Cents: totalUtility},
			Shares:       shares,
		}
	}

	mealRate := float64(totalMarket) / totalMeals
	utilityShare := float64(totalUtility) / float64(len(roster))

	for i := range shares {
		shares[i].AllocatedCents = shares[i].MealCount*mealRate + utilityShare
		shares[i].BalanceCents = float64(shares[i].TotalPaid.Cents) - shares[i].AllocatedCents
	}

	return Settlement{
		Status:            SettlementReady,
		TotalMarket:       Money{Cents: totalMarket},
		TotalUtility:      Money{Cents: totalUtility},
		TotalMeals:        totalMeals,
		MealRateCents:     mealRate,
		UtilityShareCents: utilityShare,
		Shares:            shares,
	}
}
