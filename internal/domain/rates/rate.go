package rates

import (
	"context"
	"errors"
	"time"

	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/money"
)

var (
	ErrInvalidGuests     = errors.New("rates: guests count must be 1 or 2")
	ErrInvalidAmount     = errors.New("rates: amount must be positive")
	ErrWindowRequired    = errors.New("rates: special rates require a validity window")
	ErrWindowForbidden   = errors.New("rates: base rates cannot carry a validity window")
	ErrInvalidWindow     = errors.New("rates: window end must not precede start")
	ErrDuplicateBaseRate = errors.New("rates: an active base rate already exists for this guest count")
	ErrLastBaseRate      = errors.New("rates: cannot deactivate the only base rate for this guest count")
	ErrRateNotFound      = errors.New("rates: rule not found")
)

type RuleID string

type RuleType string

const (
	TypeBase    RuleType = "base"
	TypeSpecial RuleType = "special"
)

// Window is an inclusive calendar-date validity range [Start, End]. Unlike
// stay ranges, both bounds are nights the rate applies to.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidWindow
	}
	if w.End.Before(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

func (w Window) Contains(night time.Time) bool {
	night = daterange.Day(night)
	return !night.Before(daterange.Day(w.Start)) && !night.After(daterange.Day(w.End))
}

// Overlaps reports whether two inclusive windows share at least one night.
func (w Window) Overlaps(other Window) bool {
	return !w.Start.After(other.End) && !other.Start.After(w.End)
}

// RateRule is one nightly price rule. Base rules have no window and apply
// whenever no special rule covers the night.
type RateRule struct {
	ID          RuleID
	Type        RuleType
	Guests      int
	Amount      money.Money
	Window      *Window
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
	UpdatedBy   string
}

func (r RateRule) Validate() error {
	if r.Guests < 1 || r.Guests > 2 {
		return ErrInvalidGuests
	}
	if r.Amount.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch r.Type {
	case TypeBase:
		if r.Window != nil {
			return ErrWindowForbidden
		}
	case TypeSpecial:
		if r.Window == nil {
			return ErrWindowRequired
		}
		if err := r.Window.Validate(); err != nil {
			return err
		}
	default:
		return errors.New("rates: unknown rule type")
	}
	return nil
}

// AppliesTo reports whether this rule prices the given night for the given
// guest count.
func (r RateRule) AppliesTo(night time.Time, guests int) bool {
	if !r.Active || r.Guests != guests {
		return false
	}
	if r.Type == TypeBase {
		return true
	}
	return r.Window != nil && r.Window.Contains(night)
}

// Repository is the rate store port. Snapshot feeds the resolver; the
// remaining operations back the admin management flow.
type Repository interface {
	Snapshot(ctx context.Context) (Table, error)
	ByID(ctx context.Context, id RuleID) (RateRule, error)
	Save(ctx context.Context, rule RateRule) error
	List(ctx context.Context, activeOnly bool) ([]RateRule, error)
}

// Table is an immutable snapshot of rate rules. It owns the "at most one
// active base rate per guest count" invariant.
type Table struct {
	rules []RateRule
}

func NewTable(rules []RateRule) (Table, error) {
	seenBase := map[int]bool{}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return Table{}, err
		}
		if r.Type == TypeBase && r.Active {
			if seenBase[r.Guests] {
				return Table{}, ErrDuplicateBaseRate
			}
			seenBase[r.Guests] = true
		}
	}
	snapshot := make([]RateRule, len(rules))
	copy(snapshot, rules)
	return Table{rules: snapshot}, nil
}

func (t Table) Rules() []RateRule {
	out := make([]RateRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// BaseFor returns the single active base rate for the guest count.
func (t Table) BaseFor(guests int) (RateRule, bool) {
	for _, r := range t.rules {
		if r.Type == TypeBase && r.Active && r.Guests == guests {
			return r, true
		}
	}
	return RateRule{}, false
}

func (t Table) specialsFor(night time.Time, guests int) []RateRule {
	var out []RateRule
	for _, r := range t.rules {
		if r.Type == TypeSpecial && r.AppliesTo(night, guests) {
			out = append(out, r)
		}
	}
	return out
}
