package receipt

import "fmt"

// NetWorth reports the running balance anchored to a user-set base: the
// base plus lifetime income minus lifetime expense.
type NetWorth struct {
	NetWorth     float64 `json:"net_worth"`
	BaseWorth    float64 `json:"base_worth"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
}

// NetWorth computes the current net worth over all stored records.
func (s *Service) NetWorth() (NetWorth, error) {
	base, err := s.db.GetBaseWorth()
	if err != nil {
		return NetWorth{}, fmt.Errorf("reading base worth: %w", err)
	}
	income, expense, err := s.lifetimeTotals()
	if err != nil {
		return NetWorth{}, err
	}

	return NetWorth{
		NetWorth:     round2(base + income - expense),
		BaseWorth:    round2(base),
		TotalIncome:  round2(income),
		TotalExpense: round2(expense),
	}, nil
}

// SetNetWorth rebases the anchor so the computed net worth equals the
// figure the user actually holds today.
func (s *Service) SetNetWorth(current float64) (NetWorth, error) {
	income, expense, err := s.lifetimeTotals()
	if err != nil {
		return NetWorth{}, err
	}

	base := current - (income - expense)
	if err := s.db.SetBaseWorth(base); err != nil {
		return NetWorth{}, fmt.Errorf("storing base worth: %w", err)
	}

	s.log.Info().Float64("net_worth", current).Float64("base_worth", base).Msg("net worth rebased")

	return NetWorth{
		NetWorth:     round2(current),
		BaseWorth:    round2(base),
		TotalIncome:  round2(income),
		TotalExpense: round2(expense),
	}, nil
}

func (s *Service) lifetimeTotals() (income, expense float64, err error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return 0, 0, fmt.Errorf("listing records: %w", err)
	}
	for _, r := range records {
		switch r.Kind {
		case KindIncome:
			income += r.Amount
		case KindExpense:
			expense += r.Amount
		}
	}
	return income, expense, nil
}
