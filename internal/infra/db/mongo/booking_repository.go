package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "peppertree/internal/domain/booking"
	domainrange "peppertree/internal/domain/shared/daterange"
	"peppertree/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	// One imported booking per (platform, uid). Partial so local bookings
	// with empty uid never collide.
	uidIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "platform", Value: 1}, {Key: "external_uid", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"external_uid": bson.M{"$gt": ""}}),
	}
	rangeIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "range.check_in", Value: 1}, {Key: "range.check_out", Value: 1}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{uidIdx, rangeIdx})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id), "deleted_at": nil}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Create inserts a new booking. For blocking bookings the overlap scan and
// the insert run in the ambient transaction, which serializes competing
// writers.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.checkConflict(ctx, b); err != nil {
		return err
	}
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDateUnavailable
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.checkConflict(ctx, b); err != nil {
		return err
	}
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) checkConflict(ctx context.Context, b *domainbooking.Booking) error {
	if !b.Blocking() {
		return nil
	}
	filter := overlapFilter(b.Range)
	filter["_id"] = bson.M{"$ne": string(b.ID)}
	count, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainbooking.ErrDateUnavailable
	}
	return nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"deleted_at": nil})
}

func (r *BookingRepository) FindBlocking(ctx context.Context, dr domainrange.DateRange) ([]*domainbooking.Booking, error) {
	return r.find(ctx, overlapFilter(dr))
}

func (r *BookingRepository) FindByExternalUID(ctx context.Context, platform, uid string) (*domainbooking.Booking, bool, error) {
	if uid == "" {
		return nil, false, nil
	}
	filter := bson.M{
		"platform":     strings.ToLower(strings.TrimSpace(platform)),
		"external_uid": uid,
		"deleted_at":   nil,
	}
	var doc bookingDocument
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc.toAggregate(), true, nil
}

func (r *BookingRepository) FindImportedByRange(ctx context.Context, platform string, dr domainrange.DateRange) (*domainbooking.Booking, bool, error) {
	filter := bson.M{
		"platform":        strings.ToLower(strings.TrimSpace(platform)),
		"range.check_in":  dr.CheckIn.UnixMilli(),
		"range.check_out": dr.CheckOut.UnixMilli(),
		"deleted_at":      nil,
	}
	var doc bookingDocument
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc.toAggregate(), true, nil
}

func (r *BookingRepository) FindExportable(ctx context.Context) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":     string(domainbooking.StatusApproved),
		"deleted_at": nil,
		"platform":   "",
	}
	return r.find(ctx, filter)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func overlapFilter(dr domainrange.DateRange) bson.M {
	return bson.M{
		"status":          string(domainbooking.StatusApproved),
		"deleted_at":      nil,
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
}

type bookingDocument struct {
	ID              string        `bson:"_id"`
	Range           rangeDocument `bson:"range"`
	Guests          int           `bson:"guests"`
	GuestName       string        `bson:"guest_name"`
	GuestEmail      string        `bson:"guest_email"`
	GuestPhone      string        `bson:"guest_phone"`
	SpecialRequests string        `bson:"special_requests"`
	Status          string        `bson:"status"`
	Source          string        `bson:"source"`
	Platform        string        `bson:"platform"`
	ExternalUID     string        `bson:"external_uid"`
	FeedURL         string        `bson:"feed_url"`
	TotalAmount     int64         `bson:"total_amount"`
	TotalCurrency   string        `bson:"total_currency"`
	AdminNotes      string        `bson:"admin_notes"`
	CreatedAt       int64         `bson:"created_at"`
	UpdatedAt       int64         `bson:"updated_at"`
	DeletedAt       *int64        `bson:"deleted_at"`
	DeletedBy       string        `bson:"deleted_by"`
	Version         int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:              string(b.ID),
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:          b.Guests,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		Source:          string(b.Source),
		Platform:        b.Source.Platform(),
		ExternalUID:     b.ExternalUID,
		FeedURL:         b.FeedURL,
		TotalAmount:     b.QuotedTotal.Amount,
		TotalCurrency:   b.QuotedTotal.Currency,
		AdminNotes:      b.AdminNotes,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		DeletedBy:       b.DeletedBy,
		Version:         b.Version,
	}
	if b.DeletedAt != nil {
		ms := b.DeletedAt.UnixMilli()
		doc.DeletedAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		Range:           domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:          d.Guests,
		GuestName:       d.GuestName,
		GuestEmail:      d.GuestEmail,
		GuestPhone:      d.GuestPhone,
		SpecialRequests: d.SpecialRequests,
		Status:          domainbooking.Status(d.Status),
		Source:          domainbooking.Source(d.Source),
		ExternalUID:     d.ExternalUID,
		FeedURL:         d.FeedURL,
		QuotedTotal:     money.Money{Amount: d.TotalAmount, Currency: d.TotalCurrency},
		AdminNotes:      d.AdminNotes,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		DeletedBy:       d.DeletedBy,
		Version:         d.Version,
	}
	if d.DeletedAt != nil {
		t := timestampToTime(*d.DeletedAt)
		b.DeletedAt = &t
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
