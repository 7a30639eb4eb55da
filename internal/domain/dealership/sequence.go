package dealership

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CounterType identifies which per-dealership counter a sequence row backs
type CounterType string

const (
	CounterDealNumber  CounterType = "deal_number"
	CounterStockNumber CounterType = "stock_number"
)

// IsValid checks if the counter type is known
func (c CounterType) IsValid() bool {
	switch c {
	case CounterDealNumber, CounterStockNumber:
		return true
	}
	return false
}

// String returns the string representation of the counter type
func (c CounterType) String() string {
	return string(c)
}

// Sequence is a single row holding a monotonically increasing counter for one
// (dealership, counter type) pair. The row is only ever read and incremented
// under SELECT ... FOR UPDATE inside the transaction that consumes the value,
// so an aborted attempt never leaves a gap.
type Sequence struct {
	ID           uuid.UUID
	DealershipID uuid.UUID
	Counter      CounterType
	Value        int64
	UpdatedAt    time.Time
}

// TableName maps the sequence to its table
func (Sequence) TableName() string {
	return "dealership_sequences"
}

// FormatDealNumber renders a claimed counter value as a deal number.
// Format: YYYY-MMDD-NNNN, dated at the moment the value was claimed.
func FormatDealNumber(at time.Time, value int64) string {
	return fmt.Sprintf("%04d-%02d%02d-%04d", at.Year(), int(at.Month()), at.Day(), value)
}

// FormatStockNumber renders a claimed counter value as a stock number.
// Format: STK-NNNNNN.
func FormatStockNumber(value int64) string {
	return fmt.Sprintf("STK-%06d", value)
}
