package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// FormatAmount renders integral values without decimals and fractional ones
// with exactly two.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// trimAmount renders with two decimals then strips trailing zeros, the way
// the transactions list shows amounts.
func trimAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatBalanceReport renders the /balance report. Categories are sorted by
// absolute signed total, largest first.
func FormatBalanceReport(sum Summary) string {
	var b strings.Builder
	b.WriteString("💵 Balance report\n\n")
	fmt.Fprintf(&b, "📊 Balance: %.2f\n", sum.Balance)
	fmt.Fprintf(&b, "💰 Income: %.2f\n", sum.TotalIncome)
	fmt.Fprintf(&b, "💸 Expenses: %.2f\n", sum.TotalExpense)
	fmt.Fprintf(&b, "\n📈 Transactions total: %d\n", sum.Count)

	if len(sum.ByCategory) > 0 {
		b.WriteString("\nBy category:\n")
		type catTotal struct {
			name  string
			total float64
		}
		cats := make([]catTotal, 0, len(sum.ByCategory))
		for name, total := range sum.ByCategory {
			cats = append(cats, catTotal{name, total})
		}
		sort.Slice(cats, func(i, j int) bool {
			ai, aj := math.Abs(cats[i].total), math.Abs(cats[j].total)
			if ai != aj {
				return ai > aj
			}
			return cats[i].name < cats[j].name
		})
		for _, c := range cats {
			sign := "💸"
			if c.total > 0 {
				sign = "💰"
			}
			fmt.Fprintf(&b, "%s %s: %+.2f\n", sign, c.name, c.total)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTransactionsList renders the /transactions list, newest first.
func FormatTransactionsList(txs []Transaction) string {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.After(sorted[j].Date.Time)
		}
		return timeOrdinal(sorted[i].Time) > timeOrdinal(sorted[j].Time)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📋 All transactions (%d)\n", len(sorted))
	for i, t := range sorted {
		sign, kind := "💸", "Expense"
		if t.Kind == KindIncome {
			sign, kind = "💰", "Income"
		}
		when := t.Date.Format("02.01.2006")
		if !t.Time.IsZero() {
			when += " " + t.Time.String()
		}
		fmt.Fprintf(&b, "\n%d. %s %s %s\n   📅 %s\n   🏷️ %s", i+1, sign, kind, trimAmount(t.Amount), when, t.Category)
		if t.Description != "" {
			b.WriteString("\n   " + t.Description)
		}
	}
	return b.String()
}

func timeOrdinal(t TimeOfDay) int {
	if t.IsZero() {
		return -1
	}
	return t.Hour*3600 + t.Minute*60 + t.Second
}
