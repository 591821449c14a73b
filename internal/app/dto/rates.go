package dto

import (
	"time"

	domainrates "peppertree/internal/domain/rates"
)

type RateRuleView struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Guests      int        `json:"guests"`
	Amount      MoneyDTO   `json:"amount"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type RateRuleCollection struct {
	Items []RateRuleView `json:"items"`
}

func RateRuleFromDomain(r domainrates.RateRule) RateRuleView {
	view := RateRuleView{
		ID:          string(r.ID),
		Type:        string(r.Type),
		Guests:      r.Guests,
		Amount:      MoneyFromDomain(r.Amount),
		Description: r.Description,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Window != nil {
		start, end := r.Window.Start, r.Window.End
		view.WindowStart = &start
		view.WindowEnd = &end
	}
	return view
}

func RateRuleCollectionFromDomain(rules []domainrates.RateRule) RateRuleCollection {
	out := RateRuleCollection{Items: make([]RateRuleView, 0, len(rules))}
	for _, r := range rules {
		out.Items = append(out.Items, RateRuleFromDomain(r))
	}
	return out
}

type NightRateView struct {
	Date        string   `json:"date"`
	Amount      MoneyDTO `json:"amount"`
	RuleID      string   `json:"rule_id"`
	RuleType    string   `json:"rule_type"`
	Description string   `json:"description,omitempty"`
}

type QuoteView struct {
	CheckIn  time.Time       `json:"check_in"`
	CheckOut time.Time       `json:"check_out"`
	Guests   int             `json:"guests"`
	Nights   []NightRateView `json:"nights"`
	Total    MoneyDTO        `json:"total"`
}

func NightRatesFromDomain(nights []domainrates.NightRate) []NightRateView {
	out := make([]NightRateView, 0, len(nights))
	for _, n := range nights {
		out = append(out, NightRateView{
			Date:        n.Date.Format("2006-01-02"),
			Amount:      MoneyFromDomain(n.Amount),
			RuleID:      string(n.RuleID),
			RuleType:    string(n.RuleType),
			Description: n.Description,
		})
	}
	return out
}
