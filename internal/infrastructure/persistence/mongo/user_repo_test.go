package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	alertDomain "signalist/internal/domain/alert"
)

// fakeUsers 依 $in 條件模擬 user collection 查詢。
type fakeUsers struct {
	docs    []userDoc
	filters []bson.M
	err     error
}

func (f *fakeUsers) find(_ context.Context, filter bson.M) ([]userDoc, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []userDoc
	if in, ok := filter["id"].(bson.M); ok {
		wanted := map[string]bool{}
		for _, id := range in["$in"].([]string) {
			wanted[id] = true
		}
		for _, d := range f.docs {
			if d.ExternalID != "" && wanted[d.ExternalID] {
				out = append(out, d)
			}
		}
	}
	if in, ok := filter["_id"].(bson.M); ok {
		wanted := map[primitive.ObjectID]bool{}
		for _, oid := range in["$in"].([]primitive.ObjectID) {
			wanted[oid] = true
		}
		for _, d := range f.docs {
			if wanted[d.ID] {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func TestResolveEmails_ExternalIDThenLegacyID(t *testing.T) {
	collided := primitive.NewObjectID()
	legacy := primitive.NewObjectID()
	users := &fakeUsers{docs: []userDoc{
		{ID: primitive.NewObjectID(), ExternalID: "ext-1", Email: "ext@example.com"},
		{ID: primitive.NewObjectID(), ExternalID: collided.Hex(), Email: "winner@example.com"},
		{ID: collided, Email: "loser@example.com"},
		{ID: legacy, Email: "legacy@example.com"},
	}}

	ids := []string{"ext-1", collided.Hex(), legacy.Hex(), "not-a-hex", primitive.NewObjectID().Hex()}
	got, err := resolveEmails(context.Background(), ids, users.find)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]string{
		"ext-1":        "ext@example.com",
		collided.Hex(): "winner@example.com",
		legacy.Hex():   "legacy@example.com",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for id, email := range want {
		if got[id] != email {
			t.Errorf("email for %s = %q, want %q", id, got[id], email)
		}
	}

	if len(users.filters) != 2 {
		t.Fatalf("expected two queries, got %d", len(users.filters))
	}
	second := users.filters[1]["_id"].(bson.M)["$in"].([]primitive.ObjectID)
	for _, oid := range second {
		if oid == collided {
			t.Error("id resolved by external id must not be looked up by _id")
		}
	}
	if len(second) != 2 {
		t.Errorf("expected two legacy lookups, got %d", len(second))
	}
}

func TestResolveEmails_SkipsLegacyQueryWhenAllResolved(t *testing.T) {
	users := &fakeUsers{docs: []userDoc{{ID: primitive.NewObjectID(), ExternalID: "ext-1", Email: "a@example.com"}}}
	got, err := resolveEmails(context.Background(), []string{"ext-1", "plain-string"}, users.find)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["ext-1"] != "a@example.com" || len(got) != 1 {
		t.Errorf("unexpected result: %v", got)
	}
	if len(users.filters) != 1 {
		t.Errorf("expected only the external id query, got %d", len(users.filters))
	}
}

func TestResolveEmails_EmptyAndError(t *testing.T) {
	users := &fakeUsers{}
	got, err := resolveEmails(context.Background(), nil, users.find)
	if err != nil || len(got) != 0 || len(users.filters) != 0 {
		t.Errorf("empty ids: got %v, err %v, queries %d", got, err, len(users.filters))
	}

	boom := errors.New("boom")
	users = &fakeUsers{err: boom}
	if _, err := resolveEmails(context.Background(), []string{"ext-1"}, users.find); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestAlertRepo_InvalidIDIsNotFound(t *testing.T) {
	repo := &AlertRepo{}
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)

	if _, err := repo.ClaimWindow(ctx, "not-a-hex", "2026-10-14", now, 15*time.Minute); !errors.Is(err, alertDomain.ErrAlertNotFound) {
		t.Errorf("claim: expected not found, got %v", err)
	}
	if err := repo.CommitTrigger(ctx, "not-a-hex", "2026-10-14", now); !errors.Is(err, alertDomain.ErrAlertNotFound) {
		t.Errorf("commit: expected not found, got %v", err)
	}
}
