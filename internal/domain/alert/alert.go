package alert

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Condition 價格警示的觸發方向。
type Condition string

const (
	ConditionGreater Condition = "greater"
	ConditionLess    Condition = "less"
)

// Valid 檢查是否為支援的方向。
func (c Condition) Valid() bool {
	return c == ConditionGreater || c == ConditionLess
}

// Frequency 警示的評估頻率。
type Frequency string

const (
	FrequencyDay   Frequency = "day"
	FrequencyWeek  Frequency = "week"
	FrequencyMonth Frequency = "month"
)

// Frequencies 依排程順序列出所有頻率。
var Frequencies = []Frequency{FrequencyDay, FrequencyWeek, FrequencyMonth}

// Valid 檢查是否為支援的頻率。
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDay, FrequencyWeek, FrequencyMonth:
		return true
	}
	return false
}

// ParseFrequency 將字串轉為 Frequency。
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported frequency: %q", s)
	}
	return f, nil
}

// Window 回傳 t 所屬的評估區間鍵值（UTC）。
func (f Frequency) Window(t time.Time) string {
	t = t.UTC()
	switch f {
	case FrequencyWeek:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case FrequencyMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// TypePrice 目前唯一的警示類型。
const TypePrice = "price"

var (
	ErrInvalidAlert  = errors.New("invalid alert")
	ErrAlertNotFound = errors.New("alert not found")
)

// Alert 使用者針對單一股票設定的價格門檻。
type Alert struct {
	ID              string
	UserID          string
	Symbol          string
	Company         string
	AlertName       string
	AlertType       string
	Condition       Condition
	Threshold       float64
	Frequency       Frequency
	CreatedAt       time.Time
	LastTriggeredAt *time.Time
}

// NormalizeSymbol 去除空白並轉大寫。
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Normalized 回傳寫入前的標準化副本。
func (a Alert) Normalized() Alert {
	a.Symbol = NormalizeSymbol(a.Symbol)
	a.Company = strings.TrimSpace(a.Company)
	a.AlertName = strings.TrimSpace(a.AlertName)
	if a.AlertType == "" {
		a.AlertType = TypePrice
	}
	return a
}

// Validate 基本欄位檢查。
func (a Alert) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidAlert)
	}
	if a.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidAlert)
	}
	if a.Company == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidAlert)
	}
	if a.AlertName == "" {
		return fmt.Errorf("%w: alert name is required", ErrInvalidAlert)
	}
	if a.AlertType != "" && a.AlertType != TypePrice {
		return fmt.Errorf("%w: unsupported alert type %q", ErrInvalidAlert, a.AlertType)
	}
	if !a.Condition.Valid() {
		return fmt.Errorf("%w: unsupported condition %q", ErrInvalidAlert, a.Condition)
	}
	if !a.Frequency.Valid() {
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidAlert, a.Frequency)
	}
	if !isFinite(a.Threshold) {
		return fmt.Errorf("%w: threshold must be a finite number", ErrInvalidAlert)
	}
	return nil
}

// Triggered 判斷價格是否穿越門檻；等於門檻不觸發。
func (a Alert) Triggered(price float64) bool {
	if !isFinite(a.Threshold) || !isFinite(price) {
		return false
	}
	switch a.Condition {
	case ConditionGreater:
		return price > a.Threshold
	case ConditionLess:
		return price < a.Threshold
	}
	return false
}

// Patch 局部更新欄位，nil 代表不變更。
type Patch struct {
	AlertName *string
	Symbol    *string
	Company   *string
	Condition *Condition
	Threshold *float64
	Frequency *Frequency
}

// Empty 是否沒有任何欄位需要更新。
func (p Patch) Empty() bool {
	return p.AlertName == nil && p.Symbol == nil && p.Company == nil &&
		p.Condition == nil && p.Threshold == nil && p.Frequency == nil
}

// Apply 將變更套用到 a 並重新標準化。
func (p Patch) Apply(a Alert) Alert {
	if p.AlertName != nil {
		a.AlertName = *p.AlertName
	}
	if p.Symbol != nil {
		a.Symbol = *p.Symbol
	}
	if p.Company != nil {
		a.Company = *p.Company
	}
	if p.Condition != nil {
		a.Condition = *p.Condition
	}
	if p.Threshold != nil {
		a.Threshold = *p.Threshold
	}
	if p.Frequency != nil {
		a.Frequency = *p.Frequency
	}
	return a.Normalized()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
