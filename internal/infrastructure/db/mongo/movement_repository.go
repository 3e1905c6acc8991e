package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

const collectionMovements = "stock_movements"

// MovementRepository persists the stock ledger.
type MovementRepository struct {
	col *mongo.Collection
	ids sequence
}

func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{col: db.Collection(collectionMovements), ids: newSequence(db, collectionMovements)}
}

type mongoMovement struct {
	ID                int64  `bson:"_id"`
	SweetID           int64  `bson:"sweet_id"`
	Kind              string `bson:"kind"`
	Quantity          int64  `bson:"quantity"`
	ResultingQuantity int64  `bson:"resulting_quantity"`
	ActorID           *int64 `bson:"actor_id,omitempty"`
	CreatedAt         int64  `bson:"created_at"`
}

func (r *MovementRepository) Append(ctx context.Context, m *domain.StockMovement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return err
	}
	doc := mongoMovement{
		ID:                id,
		SweetID:           m.SweetID,
		Kind:              string(m.Kind),
		Quantity:          m.Quantity,
		ResultingQuantity: m.ResultingQuantity,
		ActorID:           m.ActorID,
		CreatedAt:         m.CreatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	m.ID = id
	return nil
}

func (r *MovementRepository) ListBySweet(ctx context.Context, sweetID int64, page domain.Page) ([]*domain.StockMovement, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"sweet_id": sweetID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PerPage))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	var docs []mongoMovement
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode movements: %w", err)
	}

	out := make([]*domain.StockMovement, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.StockMovement{
			ID:                d.ID,
			SweetID:           d.SweetID,
			Kind:              domain.MovementKind(d.Kind),
			Quantity:          d.Quantity,
			ResultingQuantity: d.ResultingQuantity,
			ActorID:           d.ActorID,
			CreatedAt:         unixToTime(d.CreatedAt),
		})
	}
	return out, total, nil
}

// EnsureIndexes creates the per-sweet lookup index for the ledger.
func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sweet_id", Value: 1}, {Key: "_id", Value: -1}},
	})
	return err
}
