package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	userDomain "signalist/internal/domain/user"
)

// UserRepo 讀取驗證服務寫入的 user collection。
type UserRepo struct {
	coll *mongo.Collection
}

// NewUserRepo 建立 UserRepo。
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(usersCollection)}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (userDomain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userDomain.User{}, userDomain.ErrUserNotFound
		}
		return userDomain.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// ResolveEmails 先以 id 欄位比對，未命中者再以 _id 比對。
func (r *UserRepo) ResolveEmails(ctx context.Context, ids []string) (map[string]string, error) {
	projection := options.Find().SetProjection(bson.M{"_id": 1, "id": 1, "email": 1})
	return resolveEmails(ctx, ids, func(ctx context.Context, filter bson.M) ([]userDoc, error) {
		return r.findUsers(ctx, filter, projection)
	})
}

type userFinder func(ctx context.Context, filter bson.M) ([]userDoc, error)

// resolveEmails 兩段查詢；id 命中者不再參與 _id 比對。
func resolveEmails(ctx context.Context, ids []string, find userFinder) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	byExternal, err := find(ctx, bson.M{"id": bson.M{"$in": ids}, "email": hasValue()})
	if err != nil {
		return nil, fmt.Errorf("resolve by external id: %w", err)
	}
	for _, d := range byExternal {
		if d.ExternalID != "" && d.Email != "" {
			out[d.ExternalID] = d.Email
		}
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	oids, back := objectIDs(remaining)
	if len(oids) == 0 {
		return out, nil
	}
	byLegacy, err := find(ctx, bson.M{"_id": bson.M{"$in": oids}, "email": hasValue()})
	if err != nil {
		return nil, fmt.Errorf("resolve by legacy id: %w", err)
	}
	for _, d := range byLegacy {
		if id, ok := back[d.ID]; ok && d.Email != "" {
			out[id] = d.Email
		}
	}
	return out, nil
}

func (r *UserRepo) ListContactable(ctx context.Context) ([]userDomain.User, error) {
	docs, err := r.findUsers(ctx, contactableFilter(), options.Find())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return toUsers(docs), nil
}

func (r *UserRepo) ListInactive(ctx context.Context, cutoff time.Time) ([]userDomain.User, error) {
	docs, err := r.findUsers(ctx, inactiveFilter(cutoff), options.Find())
	if err != nil {
		return nil, fmt.Errorf("list inactive users: %w", err)
	}
	return toUsers(docs), nil
}

func (r *UserRepo) TouchLastVisit(ctx context.Context, email string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"lastVisit": at}}, options.Update().SetUpsert(false))
	if err != nil {
		return fmt.Errorf("touch last visit: %w", err)
	}
	return nil
}

func (r *UserRepo) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]userDoc, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func hasValue() bson.M {
	return bson.M{"$exists": true, "$nin": bson.A{nil, ""}}
}

func contactableFilter() bson.M {
	return bson.M{"email": hasValue(), "name": hasValue()}
}

func inactiveFilter(cutoff time.Time) bson.M {
	f := contactableFilter()
	f["$or"] = bson.A{
		bson.M{"lastVisit": bson.M{"$exists": false}},
		bson.M{"lastVisit": nil},
		bson.M{"lastVisit": bson.M{"$lt": cutoff}},
	}
	return f
}

func toUsers(docs []userDoc) []userDomain.User {
	out := make([]userDomain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out
}
