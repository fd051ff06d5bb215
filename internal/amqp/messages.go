package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is published when a committed change leaves the current
// budget period, or one of its categories, over its cap.
type BudgetAlertMessage struct {
	Period         string    `json:"period"`
	PeriodStart    time.Time `json:"period_start"`
	Total          float64   `json:"total"`
	Cap            float64   `json:"cap"`
	OverBy         float64   `json:"over_by"`
	OverCategories []string  `json:"over_categories,omitempty"`
	ExpenseID      string    `json:"expense_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON decodes a message published by PublishBudgetAlert.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
