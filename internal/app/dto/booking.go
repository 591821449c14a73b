package dto

import (
	"time"

	domainbooking "peppertree/internal/domain/booking"
	"peppertree/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MoneyFromDomain(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type BookingSummary struct {
	ID              string     `json:"id"`
	CheckIn         time.Time  `json:"check_in"`
	CheckOut        time.Time  `json:"check_out"`
	Nights          int        `json:"nights"`
	Guests          int        `json:"guests"`
	GuestName       string     `json:"guest_name"`
	GuestEmail      string     `json:"guest_email,omitempty"`
	GuestPhone      string     `json:"guest_phone,omitempty"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	Platform        string     `json:"platform,omitempty"`
	Total           MoneyDTO   `json:"total"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

func BookingFromDomain(b *domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID:              string(b.ID),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Nights:          b.Range.Nights(),
		Guests:          b.Guests,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		Source:          string(b.Source),
		Platform:        b.Source.Platform(),
		Total:           MoneyFromDomain(b.QuotedTotal),
		AdminNotes:      b.AdminNotes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		DeletedAt:       b.DeletedAt,
	}
}

func BookingCollectionFromDomain(items []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, BookingFromDomain(b))
	}
	return out
}
