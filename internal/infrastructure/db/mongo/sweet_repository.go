package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const collectionSweets = "sweets"

type SweetRepository struct {
	col *mongo.Collection
	ids sequence
	now func() time.Time
	log zerolog.Logger
	// purgeMovements drops the ledger of a deleted sweet.
	purgeMovements func(ctx context.Context, sweetID int64) error
}

func NewSweetRepository(db *mongo.Database, log zerolog.Logger) *SweetRepository {
	movements := db.Collection(collectionMovements)
	return &SweetRepository{
		col: db.Collection(collectionSweets),
		ids: newSequence(db, collectionSweets),
		now: time.Now,
		log: log,
		purgeMovements: func(ctx context.Context, sweetID int64) error {
			_, err := movements.DeleteMany(ctx, bson.M{"sweet_id": sweetID})
			return err
		},
	}
}

type mongoSweet struct {
	ID         int64  `bson:"_id"`
	Name       string `bson:"name"`
	Category   string `bson:"category"`
	PriceCents int64  `bson:"price_cents"`
	Quantity   int64  `bson:"quantity"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func (ms mongoSweet) toDomain() *domain.Sweet {
	return &domain.Sweet{
		ID:        ms.ID,
		Name:      ms.Name,
		Category:  ms.Category,
		Price:     domain.Price(ms.PriceCents),
		Quantity:  ms.Quantity,
		CreatedAt: unixToTime(ms.CreatedAt),
		UpdatedAt: unixToTime(ms.UpdatedAt),
	}
}

func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := mongoSweet{
		ID:         id,
		Name:       s.Name,
		Category:   s.Category,
		PriceCents: s.Price.Cents(),
		Quantity:   s.Quantity,
		CreatedAt:  s.CreatedAt.Unix(),
		UpdatedAt:  s.UpdatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert sweet: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id int64) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSweet
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return ms.toDomain(), nil
}

// contains matches s anywhere in the field, ignoring case.
func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func buildFilter(f ports.SweetFilter) bson.M {
	filter := bson.M{}
	if f.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": contains(f.Query)},
			bson.M{"category": contains(f.Query)},
		}
	}
	if f.Name != "" {
		filter["name"] = contains(f.Name)
	}
	if f.Category != "" {
		filter["category"] = contains(f.Category)
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = f.MinPrice.Cents()
	}
	if f.MaxPrice != nil {
		price["$lte"] = f.MaxPrice.Cents()
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	return filter
}

func (r *SweetRepository) List(ctx context.Context, f ports.SweetFilter, page domain.Page) ([]*domain.Sweet, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count sweets: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PerPage))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list sweets: %w", err)
	}
	var docs []mongoSweet
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode sweets: %w", err)
	}

	out := make([]*domain.Sweet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *SweetRepository) Update(ctx context.Context, id int64, p ports.SweetPatch) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": r.now().UTC().Unix()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Price != nil {
		set["price_cents"] = p.Price.Cents()
	}
	if p.Quantity != nil {
		set["quantity"] = *p.Quantity
	}

	var ms mongoSweet
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ms)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SweetRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSweetNotFound
	}

	r.dropLedger(ctx, id)
	return nil
}

// dropLedger removes the movements of a sweet that is already gone. The
// delete has happened by now, so a failure leaves orphaned rows and is only
// logged.
func (r *SweetRepository) dropLedger(ctx context.Context, id int64) {
	if err := r.purgeMovements(ctx, id); err != nil {
		r.log.Warn().Err(err).Int64("sweet_id", id).Msg("orphaned stock movements left after delete")
	}
}

// AdjustQuantity applies delta in one conditional findAndModify; the filter
// only matches while the result stays non-negative.
func (r *SweetRepository) AdjustQuantity(ctx context.Context, id int64, delta int64) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": r.now().UTC().Unix()},
	}

	var ms mongoSweet
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ms)
	if err == nil {
		return ms.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("adjust quantity: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("adjust quantity: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrSweetNotFound
	}
	return nil, domain.ErrInsufficientStock
}
