package rates

import (
	"context"
	"errors"
	"time"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/uow"
	domainrates "peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/money"
)

const (
	createRateKey     = "rates.create"
	updateRateKey     = "rates.update"
	deactivateRateKey = "rates.deactivate"
)

var ErrUnitOfWorkRequired = errors.New("rates: unit of work required")

type CreateRateCommand struct {
	RuleID      string
	Type        string
	Guests      int
	Amount      int64
	Currency    string
	WindowStart time.Time
	WindowEnd   time.Time
	Description string
	Actor       string
}

func (c CreateRateCommand) Key() string { return createRateKey }

type UpdateRateCommand struct {
	RuleID      string
	Amount      int64
	WindowStart time.Time
	WindowEnd   time.Time
	Description string
	Actor       string
}

func (c UpdateRateCommand) Key() string { return updateRateKey }

type DeactivateRateCommand struct {
	RuleID string
	Actor  string
}

func (c DeactivateRateCommand) Key() string { return deactivateRateKey }

// ManageRatesHandler owns the admin rate management flow. Creating a base
// rate for a guest count retires the previous one; deactivating the last
// base rate for a guest count is refused because quoting would break.
type ManageRatesHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *ManageRatesHandler) HandleCreate(ctx context.Context, cmd CreateRateCommand) (dto.RateRuleView, error) {
	ctx, unit, release, managed, err := h.begin(ctx)
	if err != nil {
		return dto.RateRuleView{}, err
	}
	defer release()

	currency := cmd.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	amount, err := money.New(cmd.Amount, currency)
	if err != nil {
		return dto.RateRuleView{}, err
	}

	now := h.now()
	rule := domainrates.RateRule{
		ID:          domainrates.RuleID(cmd.RuleID),
		Type:        domainrates.RuleType(cmd.Type),
		Guests:      cmd.Guests,
		Amount:      amount,
		Description: cmd.Description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   cmd.Actor,
		UpdatedBy:   cmd.Actor,
	}
	if rule.Type == domainrates.TypeSpecial {
		rule.Window = &domainrates.Window{Start: cmd.WindowStart, End: cmd.WindowEnd}
	}
	if err := rule.Validate(); err != nil {
		return dto.RateRuleView{}, err
	}

	// A new base rate replaces the active one for the same guest count
	// instead of colliding with it.
	if rule.Type == domainrates.TypeBase {
		table, err := unit.Rates().Snapshot(ctx)
		if err != nil {
			return dto.RateRuleView{}, err
		}
		if previous, ok := table.BaseFor(rule.Guests); ok {
			previous.Active = false
			previous.UpdatedAt = now
			previous.UpdatedBy = cmd.Actor
			if err := unit.Rates().Save(ctx, previous); err != nil {
				return dto.RateRuleView{}, err
			}
		}
	}

	if err := unit.Rates().Save(ctx, rule); err != nil {
		return dto.RateRuleView{}, err
	}
	if err := h.commit(ctx, unit, managed); err != nil {
		return dto.RateRuleView{}, err
	}
	return dto.RateRuleFromDomain(rule), nil
}

func (h *ManageRatesHandler) HandleUpdate(ctx context.Context, cmd UpdateRateCommand) (dto.RateRuleView, error) {
	ctx, unit, release, managed, err := h.begin(ctx)
	if err != nil {
		return dto.RateRuleView{}, err
	}
	defer release()

	rule, err := unit.Rates().ByID(ctx, domainrates.RuleID(cmd.RuleID))
	if err != nil {
		return dto.RateRuleView{}, err
	}

	if cmd.Amount > 0 {
		amount, err := money.New(cmd.Amount, rule.Amount.Currency)
		if err != nil {
			return dto.RateRuleView{}, err
		}
		rule.Amount = amount
	}
	if cmd.Description != "" {
		rule.Description = cmd.Description
	}
	if rule.Type == domainrates.TypeSpecial && (!cmd.WindowStart.IsZero() || !cmd.WindowEnd.IsZero()) {
		window := *rule.Window
		if !cmd.WindowStart.IsZero() {
			window.Start = cmd.WindowStart
		}
		if !cmd.WindowEnd.IsZero() {
			window.End = cmd.WindowEnd
		}
		rule.Window = &window
	}
	rule.UpdatedAt = h.now()
	rule.UpdatedBy = cmd.Actor
	if err := rule.Validate(); err != nil {
		return dto.RateRuleView{}, err
	}

	if err := unit.Rates().Save(ctx, rule); err != nil {
		return dto.RateRuleView{}, err
	}
	if err := h.commit(ctx, unit, managed); err != nil {
		return dto.RateRuleView{}, err
	}
	return dto.RateRuleFromDomain(rule), nil
}

func (h *ManageRatesHandler) HandleDeactivate(ctx context.Context, cmd DeactivateRateCommand) (dto.RateRuleView, error) {
	ctx, unit, release, managed, err := h.begin(ctx)
	if err != nil {
		return dto.RateRuleView{}, err
	}
	defer release()

	rule, err := unit.Rates().ByID(ctx, domainrates.RuleID(cmd.RuleID))
	if err != nil {
		return dto.RateRuleView{}, err
	}

	if rule.Type == domainrates.TypeBase && rule.Active {
		table, err := unit.Rates().Snapshot(ctx)
		if err != nil {
			return dto.RateRuleView{}, err
		}
		if current, ok := table.BaseFor(rule.Guests); ok && current.ID == rule.ID {
			return dto.RateRuleView{}, domainrates.ErrLastBaseRate
		}
	}

	rule.Active = false
	rule.UpdatedAt = h.now()
	rule.UpdatedBy = cmd.Actor

	if err := unit.Rates().Save(ctx, rule); err != nil {
		return dto.RateRuleView{}, err
	}
	if err := h.commit(ctx, unit, managed); err != nil {
		return dto.RateRuleView{}, err
	}
	return dto.RateRuleFromDomain(rule), nil
}

func (h *ManageRatesHandler) begin(ctx context.Context) (context.Context, uow.UnitOfWork, func(), bool, error) {
	ctx, unit, release, managed, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		if errors.Is(err, uow.ErrUnitOfWorkMissing) {
			err = ErrUnitOfWorkRequired
		}
		return ctx, nil, nil, false, err
	}
	return ctx, unit, release, managed, nil
}

func (h *ManageRatesHandler) commit(ctx context.Context, unit uow.UnitOfWork, managed bool) error {
	if !managed {
		return nil
	}
	return unit.Commit(ctx)
}

func (h *ManageRatesHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}
