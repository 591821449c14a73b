package money

import (
	"errors"
	"testing"
)

func TestNewValidatesCurrency(t *testing.T) {
	if _, err := New(100, "ZA"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("want ErrInvalidCurrency, got %v", err)
	}
	m, err := New(100, "zar")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Currency != "ZAR" {
		t.Fatalf("currency not normalized: %q", m.Currency)
	}
}

func TestAdd(t *testing.T) {
	sum, err := ZAR(95000).Add(ZAR(80000))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Amount != 175000 {
		t.Fatalf("sum = %d, want 175000", sum.Amount)
	}

	if _, err := ZAR(100).Add(Must(100, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("want ErrCurrencyMismatch, got %v", err)
	}
}

func TestString(t *testing.T) {
	if got := ZAR(95000).String(); got != "ZAR 950.00" {
		t.Fatalf("String = %q", got)
	}
	if got := ZAR(95005).String(); got != "ZAR 950.05" {
		t.Fatalf("String = %q", got)
	}
}
