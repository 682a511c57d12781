package user

import (
	"errors"
	"time"
)

// ErrUserNotFound 找不到對應的使用者。
var ErrUserNotFound = errors.New("user not found")

// User 由驗證服務建立的帳號資料，此處僅讀取與更新造訪時間。
type User struct {
	ID                string // 舊版內部 id
	ExternalID        string // 驗證服務簽發的 id
	Email             string
	Name              string
	Country           string
	InvestmentGoals   string
	RiskTolerance     string
	PreferredIndustry string
	LastVisit         *time.Time
	CreatedAt         time.Time
}

// OwnerID 寫入警示與觀察清單時使用的擁有者 id，優先採用 ExternalID。
func (u User) OwnerID() string {
	if u.ExternalID != "" {
		return u.ExternalID
	}
	return u.ID
}

// Contactable 具備寄信所需的 email 與名稱。
func (u User) Contactable() bool {
	return u.Email != "" && u.Name != ""
}

// InactiveSince 從未造訪或最後造訪早於 cutoff。
func (u User) InactiveSince(cutoff time.Time) bool {
	return u.LastVisit == nil || u.LastVisit.Before(cutoff)
}

// EmailIndex 依 id 解析 email，先比對 ExternalID 再比對舊版 ID。
type EmailIndex struct {
	byExternal map[string]string
	byLegacy   map[string]string
}

// NewEmailIndex 由候選使用者建立索引。
func NewEmailIndex(users []User) EmailIndex {
	idx := EmailIndex{
		byExternal: make(map[string]string, len(users)),
		byLegacy:   make(map[string]string, len(users)),
	}
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if u.ExternalID != "" {
			idx.byExternal[u.ExternalID] = u.Email
		}
		if u.ID != "" {
			idx.byLegacy[u.ID] = u.Email
		}
	}
	return idx
}

// Lookup 回傳 id 對應的 email。
func (idx EmailIndex) Lookup(id string) (string, bool) {
	if email, ok := idx.byExternal[id]; ok {
		return email, true
	}
	email, ok := idx.byLegacy[id]
	return email, ok
}

// Resolve 批次解析，無法解析的 id 不會出現在結果中。
func (idx EmailIndex) Resolve(ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if email, ok := idx.Lookup(id); ok {
			out[id] = email
		}
	}
	return out
}
