package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	alertDomain "signalist/internal/domain/alert"
)

// AlertRepo 以 alerts collection 儲存警示。
type AlertRepo struct {
	coll *mongo.Collection
}

// NewAlertRepo 建立 AlertRepo。
func NewAlertRepo(db *mongo.Database) *AlertRepo {
	return &AlertRepo{coll: db.Collection(alertsCollection)}
}

func (r *AlertRepo) Insert(ctx context.Context, a alertDomain.Alert) (alertDomain.Alert, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	doc := newAlertDoc(a)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return alertDomain.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	a.ID = doc.ID.Hex()
	return a, nil
}

func (r *AlertRepo) Update(ctx context.Context, a alertDomain.Alert) error {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return alertDomain.ErrAlertNotFound
	}
	update := bson.M{"$set": bson.M{
		"alertName": a.AlertName,
		"symbol":    a.Symbol,
		"company":   a.Company,
		"condition": string(a.Condition),
		"threshold": a.Threshold,
		"frequency": string(a.Frequency),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "userId": a.UserID}, update)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if res.MatchedCount == 0 {
		return alertDomain.ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepo) Delete(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return alertDomain.ErrAlertNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if res.DeletedCount == 0 {
		return alertDomain.ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepo) Get(ctx context.Context, id string) (alertDomain.Alert, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	var doc alertDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
		}
		return alertDomain.Alert{}, fmt.Errorf("find alert: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AlertRepo) ListByUser(ctx context.Context, userID string) ([]alertDomain.Alert, error) {
	return r.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *AlertRepo) ListByFrequency(ctx context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error) {
	return r.find(ctx, bson.M{"frequency": string(freq)}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *AlertRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]alertDomain.Alert, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	var docs []alertDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	out := make([]alertDomain.Alert, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *AlertRepo) ClaimWindow(ctx context.Context, id, window string, now time.Time, lease time.Duration) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, alertDomain.ErrAlertNotFound
	}
	res, err := r.coll.UpdateOne(ctx, claimFilter(oid, window, now.Add(-lease)), bson.M{
		"$set": bson.M{"claimWindow": window, "claimedAt": now},
	})
	if err != nil {
		return false, fmt.Errorf("claim alert window: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// claimFilter 區間尚未通知，且沒有同區間未過期的 claim。
func claimFilter(oid primitive.ObjectID, window string, staleBefore time.Time) bson.M {
	return bson.M{
		"_id":            oid,
		"notifiedWindow": bson.M{"$ne": window},
		"$or": bson.A{
			bson.M{"claimWindow": bson.M{"$ne": window}},
			bson.M{"claimedAt": bson.M{"$lt": staleBefore}},
		},
	}
}

func (r *AlertRepo) CommitTrigger(ctx context.Context, id, window string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return alertDomain.ErrAlertNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":   bson.M{"lastTriggeredAt": at, "notifiedWindow": window},
		"$unset": bson.M{"claimWindow": "", "claimedAt": ""},
	})
	if err != nil {
		return fmt.Errorf("commit alert trigger: %w", err)
	}
	if res.MatchedCount == 0 {
		return alertDomain.ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepo) ReleaseWindow(ctx context.Context, id, window string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid, "claimWindow": window}, bson.M{
		"$unset": bson.M{"claimWindow": "", "claimedAt": ""},
	})
	if err != nil {
		return fmt.Errorf("release alert window: %w", err)
	}
	return nil
}
