package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	watchDomain "signalist/internal/domain/watchlist"
)

// WatchlistRepo 以 watchlists collection 儲存觀察清單。
type WatchlistRepo struct {
	coll *mongo.Collection
}

// NewWatchlistRepo 建立 WatchlistRepo。
func NewWatchlistRepo(db *mongo.Database) *WatchlistRepo {
	return &WatchlistRepo{coll: db.Collection(watchlistCollection)}
}

func (r *WatchlistRepo) Add(ctx context.Context, item watchDomain.Item) error {
	doc := watchlistDoc{UserID: item.UserID, Symbol: item.Symbol, Company: item.Company, AddedAt: item.AddedAt}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return watchDomain.ErrAlreadyInWatchlist
		}
		return fmt.Errorf("insert watchlist item: %w", err)
	}
	return nil
}

func (r *WatchlistRepo) Remove(ctx context.Context, userID, symbol string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "symbol": symbol})
	if err != nil {
		return false, fmt.Errorf("delete watchlist item: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string) ([]watchDomain.Item, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find watchlist: %w", err)
	}
	var docs []watchlistDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	out := make([]watchDomain.Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
