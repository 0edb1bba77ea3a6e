package models

import "time"

// TestCase is one input/expected-output pair for a code question. Test cases
// are immutable and always handled in ascending ID order.
type TestCase struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	QuestionID     uint      `gorm:"not null;index" json:"question_id"`
	Input          string    `gorm:"type:text" json:"input"`
	ExpectedOutput string    `gorm:"type:text" json:"expected_output"`
	CreatedAt      time.Time `json:"created_at"`
}
