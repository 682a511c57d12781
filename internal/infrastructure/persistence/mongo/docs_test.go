package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	alertDomain "signalist/internal/domain/alert"
)

func TestAlertDoc_RoundTripThroughBSON(t *testing.T) {
	created := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	doc := newAlertDoc(alertDomain.Alert{
		UserID: "u-1", Symbol: "AAPL", Company: "Apple", AlertName: "up", AlertType: "price",
		Condition: alertDomain.ConditionGreater, Threshold: 150, Frequency: alertDomain.FrequencyDay, CreatedAt: created,
	})
	doc.ID = primitive.NewObjectID()

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"userId", "alertName", "alertType", "lastTriggeredAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected field %s in document", key)
		}
	}
	if _, ok := m["claimWindow"]; ok {
		t.Error("empty claim window should be omitted")
	}

	var back alertDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal doc: %v", err)
	}
	a := back.toDomain()
	if a.ID != doc.ID.Hex() || a.Condition != alertDomain.ConditionGreater || !a.CreatedAt.Equal(created) {
		t.Errorf("unexpected alert: %+v", a)
	}
}

func TestUserDoc_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	u := userDoc{ID: oid, ExternalID: "ext-1", Email: "a@example.com", Name: "Ada"}.toDomain()
	if u.ID != oid.Hex() || u.OwnerID() != "ext-1" {
		t.Errorf("unexpected user: %+v", u)
	}
	legacy := userDoc{ID: oid, Email: "b@example.com"}.toDomain()
	if legacy.OwnerID() != oid.Hex() {
		t.Errorf("expected hex owner id, got %s", legacy.OwnerID())
	}
}

func TestObjectIDs_SkipsInvalidHex(t *testing.T) {
	oid := primitive.NewObjectID()
	ids, back := objectIDs([]string{oid.Hex(), "not-an-object-id", "ext-123"})
	if len(ids) != 1 || back[oid] != oid.Hex() {
		t.Errorf("unexpected conversion: %v %v", ids, back)
	}
}

func TestClaimFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	stale := time.Date(2026, 10, 14, 12, 45, 0, 0, time.UTC)
	f := claimFilter(oid, "2026-W42", stale)

	if f["_id"] != oid {
		t.Errorf("expected id filter")
	}
	if ne, ok := f["notifiedWindow"].(bson.M); !ok || ne["$ne"] != "2026-W42" {
		t.Errorf("unexpected notified filter: %v", f["notifiedWindow"])
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("unexpected $or: %v", f["$or"])
	}
	if lt := or[1].(bson.M)["claimedAt"].(bson.M)["$lt"]; lt != stale {
		t.Errorf("unexpected stale cutoff: %v", lt)
	}
}

func TestInactiveFilter(t *testing.T) {
	cutoff := time.Date(2026, 9, 29, 0, 0, 0, 0, time.UTC)
	f := inactiveFilter(cutoff)
	if _, ok := f["email"]; !ok {
		t.Error("expected email filter")
	}
	if _, ok := f["name"]; !ok {
		t.Error("expected name filter")
	}
	if or, ok := f["$or"].(bson.A); !ok || len(or) != 3 {
		t.Errorf("unexpected $or: %v", f["$or"])
	}
}
