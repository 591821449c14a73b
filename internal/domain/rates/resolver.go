package rates

import (
	"errors"
	"time"

	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/money"
)

// ErrNoBaseRate means no active base rate exists for the requested guest
// count. Quoting fails rather than falling back to a default amount.
var ErrNoBaseRate = errors.New("rates: no active base rate configured for guest count")

type NightRate struct {
	Date        time.Time
	Amount      money.Money
	RuleID      RuleID
	RuleType    RuleType
	Description string
}

// Quote resolves the nightly price for every night of the stay and the
// summed total. Special rates take precedence over the base rate; when
// several specials cover the same night the lowest amount wins, and equal
// amounts are broken in favour of the most recently created rule.
func (t Table) Quote(dr daterange.DateRange, guests int) ([]NightRate, money.Money, error) {
	if guests < 1 || guests > 2 {
		return nil, money.Money{}, ErrInvalidGuests
	}
	if err := dr.Validate(); err != nil {
		return nil, money.Money{}, err
	}
	base, ok := t.BaseFor(guests)
	if !ok {
		return nil, money.Money{}, ErrNoBaseRate
	}

	nights := dr.EachNight()
	breakdown := make([]NightRate, 0, len(nights))
	total := money.Money{Amount: 0, Currency: base.Amount.Currency}
	for _, night := range nights {
		rule := base
		if special, ok := pickSpecial(t.specialsFor(night, guests)); ok {
			rule = special
		}
		breakdown = append(breakdown, NightRate{
			Date:        night,
			Amount:      rule.Amount,
			RuleID:      rule.ID,
			RuleType:    rule.Type,
			Description: rule.Description,
		})
		sum, err := total.Add(rule.Amount)
		if err != nil {
			return nil, money.Money{}, err
		}
		total = sum
	}
	return breakdown, total, nil
}

// pickSpecial applies the documented tie-break: lowest amount first, then
// newest rule by creation time.
func pickSpecial(candidates []RateRule) (RateRule, bool) {
	if len(candidates) == 0 {
		return RateRule{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.Amount.Amount < best.Amount.Amount:
			best = c
		case c.Amount.Amount == best.Amount.Amount && c.CreatedAt.After(best.CreatedAt):
			best = c
		}
	}
	return best, true
}
