package receipt

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// CategoryStat is one category's share of a month's expenses.
type CategoryStat struct {
	Category   Category `json:"category"`
	Amount     float64  `json:"amount"`
	Percentage float64  `json:"percentage"`
}

// DailyStat is one day's total expense.
type DailyStat struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// MonthStats summarizes a single month.
type MonthStats struct {
	TotalExpense float64        `json:"total_expense"`
	TotalIncome  float64        `json:"total_income"`
	Balance      float64        `json:"balance"`
	ByCategory   []CategoryStat `json:"by_category"`
	DailyExpense []DailyStat    `json:"daily_expense"`
}

// MonthSummary is one month's totals inside a yearly rollup.
type MonthSummary struct {
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// YearStats is the twelve-month rollup for one year.
type YearStats struct {
	Year    int            `json:"year"`
	Monthly []MonthSummary `json:"monthly"`
}

// AggregateMonth computes totals, the expense breakdown by category
// (descending by amount, percentages of total expense) and the per-day
// expense series (ascending by date) for one month's records.
func AggregateMonth(records []*Record) MonthStats {
	var totalExpense, totalIncome float64
	byCategory := map[Category]float64{}
	byDay := map[string]float64{}

	for _, r := range records {
		switch r.Kind {
		case KindIncome:
			totalIncome += r.Amount
		case KindExpense:
			totalExpense += r.Amount
			byCategory[r.Category] += r.Amount
			byDay[r.Date] += r.Amount
		}
	}

	stats := MonthStats{
		TotalExpense: round2(totalExpense),
		TotalIncome:  round2(totalIncome),
		Balance:      round2(totalIncome - totalExpense),
		ByCategory:   make([]CategoryStat, 0, len(byCategory)),
		DailyExpense: make([]DailyStat, 0, len(byDay)),
	}

	for cat, amt := range byCategory {
		var pct float64
		// A month with no expenses has every percentage at zero rather
		// than dividing by zero.
		if totalExpense > 0 {
			pct = round1(amt / totalExpense * 100)
		}
		stats.ByCategory = append(stats.ByCategory, CategoryStat{
			Category:   cat,
			Amount:     round2(amt),
			Percentage: pct,
		})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		a, b := stats.ByCategory[i], stats.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})

	for day, amt := range byDay {
		stats.DailyExpense = append(stats.DailyExpense, DailyStat{Date: day, Amount: round2(amt)})
	}
	sort.Slice(stats.DailyExpense, func(i, j int) bool {
		return stats.DailyExpense[i].Date < stats.DailyExpense[j].Date
	})

	return stats
}

// AggregateYear rolls one year's records up into twelve month buckets, in
// month order, including months with no activity.
func AggregateYear(year int, records []*Record) YearStats {
	type bucket struct{ income, expense float64 }
	months := make([]bucket, 12)

	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		m, err := strconv.Atoi(r.Date[5:7])
		if err != nil || m < 1 || m > 12 {
			continue
		}
		switch r.Kind {
		case KindIncome:
			months[m-1].income += r.Amount
		case KindExpense:
			months[m-1].expense += r.Amount
		}
	}

	stats := YearStats{Year: year, Monthly: make([]MonthSummary, 0, 12)}
	for i, b := range months {
		stats.Monthly = append(stats.Monthly, MonthSummary{
			Month:   i + 1,
			Income:  round2(b.income),
			Expense: round2(b.expense),
			Balance: round2(b.income - b.expense),
		})
	}
	return stats
}

// ListFilter narrows and pages through records. Zero values mean "not
// supplied".
type ListFilter struct {
	StartDate string
	EndDate   string
	Category  string
	Kind      string
	Merchant  string // case-sensitive substring match
	Page      int
	PageSize  int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FilterRecords applies the filter conjunctively, orders by date then id
// descending (ids break ties in insertion order) and returns the page
// slice plus the total match count before pagination.
func FilterRecords(records []*Record, f ListFilter) ([]*Record, int) {
	matched := make([]*Record, 0, len(records))
	for _, r := range records {
		if f.StartDate != "" && r.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && r.Date > f.EndDate {
			continue
		}
		if f.Category != "" && string(r.Category) != f.Category {
			continue
		}
		if f.Kind != "" && string(r.Kind) != f.Kind {
			continue
		}
		if f.Merchant != "" && !strings.Contains(r.Merchant, f.Merchant) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	start := (page - 1) * size
	if start >= total {
		return []*Record{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
