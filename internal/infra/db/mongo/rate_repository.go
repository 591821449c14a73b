package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrates "peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/money"
)

type RateRepository struct {
	col *mongo.Collection
}

func NewRateRepository(db *mongo.Database) *RateRepository {
	return &RateRepository{col: db.Collection("rate_rules")}
}

func (r *RateRepository) Snapshot(ctx context.Context) (domainrates.Table, error) {
	rules, err := r.List(ctx, false)
	if err != nil {
		return domainrates.Table{}, err
	}
	return domainrates.NewTable(rules)
}

func (r *RateRepository) ByID(ctx context.Context, id domainrates.RuleID) (domainrates.RateRule, error) {
	var doc rateDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainrates.RateRule{}, domainrates.ErrRateNotFound
		}
		return domainrates.RateRule{}, err
	}
	return doc.toRule(), nil
}

func (r *RateRepository) Save(ctx context.Context, rule domainrates.RateRule) error {
	doc := newRateDocument(rule)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *RateRepository) List(ctx context.Context, activeOnly bool) ([]domainrates.RateRule, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domainrates.RateRule
	for cur.Next(ctx) {
		var doc rateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRule())
	}
	return out, cur.Err()
}

type rateDocument struct {
	ID          string `bson:"_id"`
	Type        string `bson:"type"`
	Guests      int    `bson:"guests"`
	Amount      int64  `bson:"amount"`
	Currency    string `bson:"currency"`
	WindowStart *int64 `bson:"window_start"`
	WindowEnd   *int64 `bson:"window_end"`
	Description string `bson:"description"`
	Active      bool   `bson:"active"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	CreatedBy   string `bson:"created_by"`
	UpdatedBy   string `bson:"updated_by"`
}

func newRateDocument(rule domainrates.RateRule) rateDocument {
	doc := rateDocument{
		ID:          string(rule.ID),
		Type:        string(rule.Type),
		Guests:      rule.Guests,
		Amount:      rule.Amount.Amount,
		Currency:    rule.Amount.Currency,
		Description: rule.Description,
		Active:      rule.Active,
		CreatedAt:   rule.CreatedAt.UnixMilli(),
		UpdatedAt:   rule.UpdatedAt.UnixMilli(),
		CreatedBy:   rule.CreatedBy,
		UpdatedBy:   rule.UpdatedBy,
	}
	if rule.Window != nil {
		start := rule.Window.Start.UnixMilli()
		end := rule.Window.End.UnixMilli()
		doc.WindowStart = &start
		doc.WindowEnd = &end
	}
	return doc
}

func (d rateDocument) toRule() domainrates.RateRule {
	rule := domainrates.RateRule{
		ID:          domainrates.RuleID(d.ID),
		Type:        domainrates.RuleType(d.Type),
		Guests:      d.Guests,
		Amount:      money.Money{Amount: d.Amount, Currency: d.Currency},
		Description: d.Description,
		Active:      d.Active,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		CreatedBy:   d.CreatedBy,
		UpdatedBy:   d.UpdatedBy,
	}
	if d.WindowStart != nil && d.WindowEnd != nil {
		rule.Window = &domainrates.Window{
			Start: timestampToTime(*d.WindowStart),
			End:   timestampToTime(*d.WindowEnd),
		}
	}
	return rule
}

var _ domainrates.Repository = (*RateRepository)(nil)
