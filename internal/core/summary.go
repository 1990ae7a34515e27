package core

// Totals holds the sum of amounts per bucket.
type Totals struct {
	Income     Money
	Expense    Money
	Saving     Money
	Investment Money
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Kind   Kind
	Name   string
	Amount Money
}

// Summary is what the balance panel and the bar chart display.
type Summary struct {
	Totals     Totals
	Balance    Money
	ByCategory []CategoryAmount
}

// ComputeTotals sums amounts grouped by kind. Movements with an unknown kind
// are ignored.
func ComputeTotals(ms []Movement) Totals {
	var t Totals
	for _, m := range ms {
		switch m.Kind {
		case Income:
			t.Income = t.Income.Add(m.Amount)
		case Expense:
			t.Expense = t.Expense.Add(m.Amount)
		case Saving:
			t.Saving = t.Saving.Add(m.Amount)
		case Investment:
			t.Investment = t.Investment.Add(m.Amount)
		}
	}
	return t
}

// Balance is the spendable cash left: money moved to savings or investments
// is no longer available, so both are deducted.
func (t Totals) Balance() Money {
	return t.Income.Sub(t.Expense).Sub(t.Saving).Sub(t.Investment)
}

// Of returns the total for kind k.
func (t Totals) Of(k Kind) Money {
	switch k {
	case Income:
		return t.Income
	case Expense:
		return t.Expense
	case Saving:
		return t.Saving
	case Investment:
		return t.Investment
	default:
		return Money{}
	}
}

// ByCategory sums amounts per (kind, category), ordered by kind and then by
// first appearance of the category.
func ByCategory(ms []Movement) []CategoryAmount {
	type key struct {
		kind Kind
		name string
	}
	sums := map[key]Money{}
	order := map[Kind][]string{}
	for _, m := range ms {
		k := key{m.Kind, m.Category}
		if _, seen := sums[k]; !seen {
			order[m.Kind] = append(order[m.Kind], m.Category)
		}
		sums[k] = sums[k].Add(m.Amount)
	}
	var out []CategoryAmount
	for _, kind := range Kinds() {
		for _, name := range order[kind] {
			out = append(out, CategoryAmount{Kind: kind, Name: name, Amount: sums[key{kind, name}]})
		}
	}
	return out
}

// Summarize computes totals, balance and the per-category breakdown of ms.
func Summarize(ms []Movement) Summary {
	t := ComputeTotals(ms)
	return Summary{
		Totals:     t,
		Balance:    t.Balance(),
		ByCategory: ByCategory(ms),
	}
}
