package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
	watchDomain "signalist/internal/domain/watchlist"
)

const (
	alertsCollection    = "alerts"
	usersCollection     = "user"
	watchlistCollection = "watchlists"
)

type alertDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          string             `bson:"userId"`
	Symbol          string             `bson:"symbol"`
	Company         string             `bson:"company"`
	AlertName       string             `bson:"alertName"`
	AlertType       string             `bson:"alertType"`
	Condition       string             `bson:"condition"`
	Threshold       float64            `bson:"threshold"`
	Frequency       string             `bson:"frequency"`
	CreatedAt       time.Time          `bson:"createdAt"`
	LastTriggeredAt *time.Time         `bson:"lastTriggeredAt"`
	NotifiedWindow  string             `bson:"notifiedWindow,omitempty"`
	ClaimWindow     string             `bson:"claimWindow,omitempty"`
	ClaimedAt       *time.Time         `bson:"claimedAt,omitempty"`
}

func newAlertDoc(a alertDomain.Alert) alertDoc {
	return alertDoc{
		UserID:          a.UserID,
		Symbol:          a.Symbol,
		Company:         a.Company,
		AlertName:       a.AlertName,
		AlertType:       a.AlertType,
		Condition:       string(a.Condition),
		Threshold:       a.Threshold,
		Frequency:       string(a.Frequency),
		CreatedAt:       a.CreatedAt,
		LastTriggeredAt: a.LastTriggeredAt,
	}
}

func (d alertDoc) toDomain() alertDomain.Alert {
	a := alertDomain.Alert{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Symbol:    d.Symbol,
		Company:   d.Company,
		AlertName: d.AlertName,
		AlertType: d.AlertType,
		Condition: alertDomain.Condition(d.Condition),
		Threshold: d.Threshold,
		Frequency: alertDomain.Frequency(d.Frequency),
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.LastTriggeredAt != nil {
		t := d.LastTriggeredAt.UTC()
		a.LastTriggeredAt = &t
	}
	return a
}

// userDoc 使用者文件；舊版資料只有 _id，新版另有驗證服務的 id 欄位。
type userDoc struct {
	ID                primitive.ObjectID `bson:"_id"`
	ExternalID        string             `bson:"id,omitempty"`
	Email             string             `bson:"email"`
	Name              string             `bson:"name"`
	Country           string             `bson:"country,omitempty"`
	InvestmentGoals   string             `bson:"investmentGoals,omitempty"`
	RiskTolerance     string             `bson:"riskTolerance,omitempty"`
	PreferredIndustry string             `bson:"preferredIndustry,omitempty"`
	LastVisit         *time.Time         `bson:"lastVisit,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt,omitempty"`
}

func (d userDoc) toDomain() userDomain.User {
	u := userDomain.User{
		ID:                d.ID.Hex(),
		ExternalID:        d.ExternalID,
		Email:             d.Email,
		Name:              d.Name,
		Country:           d.Country,
		InvestmentGoals:   d.InvestmentGoals,
		RiskTolerance:     d.RiskTolerance,
		PreferredIndustry: d.PreferredIndustry,
		CreatedAt:         d.CreatedAt.UTC(),
	}
	if d.ID.IsZero() {
		u.ID = ""
	}
	if d.LastVisit != nil {
		t := d.LastVisit.UTC()
		u.LastVisit = &t
	}
	return u
}

type watchlistDoc struct {
	UserID  string    `bson:"userId"`
	Symbol  string    `bson:"symbol"`
	Company string    `bson:"company"`
	AddedAt time.Time `bson:"addedAt"`
}

func (d watchlistDoc) toDomain() watchDomain.Item {
	return watchDomain.Item{UserID: d.UserID, Symbol: d.Symbol, Company: d.Company, AddedAt: d.AddedAt.UTC()}
}

// objectIDs 將 hex 字串轉為 ObjectID，無法轉換者略過。
func objectIDs(ids []string) ([]primitive.ObjectID, map[primitive.ObjectID]string) {
	out := make([]primitive.ObjectID, 0, len(ids))
	back := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
		back[oid] = id
	}
	return out, back
}
