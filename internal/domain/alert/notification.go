package alert

import (
	"time"

	marketDomain "signalist/internal/domain/market"
)

// Direction 決定使用上穿或下穿的通知模板。
type Direction string

const (
	DirectionUpper Direction = "upper"
	DirectionLower Direction = "lower"
)

// Direction 將警示方向對應到通知模板。
func (c Condition) Direction() Direction {
	if c == ConditionLess {
		return DirectionLower
	}
	return DirectionUpper
}

// TimestampLayout 通知信中的觸發時間格式（UTC）。
const TimestampLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// TriggerPayload 觸發通知所需的欄位，皆已格式化。
type TriggerPayload struct {
	Email        string
	Symbol       string
	Company      string
	CurrentPrice string
	TargetPrice  string
	Timestamp    string
}

// NewTriggerPayload 建立觸發通知內容。
func NewTriggerPayload(a Alert, email string, price float64, at time.Time) TriggerPayload {
	return TriggerPayload{
		Email:        email,
		Symbol:       a.Symbol,
		Company:      a.Company,
		CurrentPrice: FormatPrice(price),
		TargetPrice:  FormatPrice(a.Threshold),
		Timestamp:    at.UTC().Format(TimestampLayout),
	}
}

// FormatPrice 以美元符號與兩位小數輸出。
func FormatPrice(v float64) string {
	return "$" + marketDomain.Fixed(v, 2)
}

// Outcome 單筆警示評估結果。
type Outcome string

const (
	OutcomeTriggered    Outcome = "triggered"
	OutcomeNotTriggered Outcome = "not_triggered"
	OutcomeUnavailable  Outcome = "unavailable"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeFailed       Outcome = "failed"
)
