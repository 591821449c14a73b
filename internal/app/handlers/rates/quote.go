package rates

import (
	"context"
	"time"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	domainrange "peppertree/internal/domain/shared/daterange"
)

const (
	quoteStayKey = "rates.quote"
	listRatesKey = "rates.list"
)

type QuoteStayQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

// QuoteStayHandler prices a stay night by night against the current rate
// table. It never persists anything; the booking flow locks its own copy
// of the total at request time.
type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.QuoteView, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.QuoteView{}, err
	}

	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.QuoteView{}, err
	}
	defer release()

	table, err := unit.Rates().Snapshot(ctx)
	if err != nil {
		return dto.QuoteView{}, err
	}
	nights, total, err := table.Quote(dr, q.Guests)
	if err != nil {
		return dto.QuoteView{}, err
	}

	return dto.QuoteView{
		CheckIn:  dr.CheckIn,
		CheckOut: dr.CheckOut,
		Guests:   q.Guests,
		Nights:   dto.NightRatesFromDomain(nights),
		Total:    dto.MoneyFromDomain(total),
	}, nil
}

type ListRatesQuery struct {
	ActiveOnly bool
}

func (q ListRatesQuery) Key() string { return listRatesKey }

type ListRatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRatesHandler) Handle(ctx context.Context, q ListRatesQuery) (dto.RateRuleCollection, error) {
	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.RateRuleCollection{}, err
	}
	defer release()

	rules, err := unit.Rates().List(ctx, q.ActiveOnly)
	if err != nil {
		return dto.RateRuleCollection{}, err
	}
	return dto.RateRuleCollectionFromDomain(rules), nil
}

var _ queries.Handler[QuoteStayQuery, dto.QuoteView] = (*QuoteStayHandler)(nil)
var _ queries.Handler[ListRatesQuery, dto.RateRuleCollection] = (*ListRatesHandler)(nil)
