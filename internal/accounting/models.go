package accounting

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// StoredObject is one object reported by the object store listing.
type StoredObject struct {
	Key  string
	Size int64
}

// Owner pairs a user with every test id referenced by their document.
type Owner struct {
	UserID  uuid.UUID
	TestIDs []string
}

// UsageUpdate carries a freshly recomputed storage total for one user.
type UsageUpdate struct {
	UserID uuid.UUID
	SizeMB float64
}

// Megabytes marshals as a fixed two-decimal JSON string ("1.50"), the format
// the frontend renders directly. Arithmetic stays in raw bytes elsewhere.
type Megabytes float64

// MarshalJSON renders the value with exactly two decimal places.
func (m Megabytes) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(m), 'f', 2, 64))), nil
}

// UnmarshalJSON accepts both the quoted fixed-decimal form and a bare number.
func (m *Megabytes) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("parse megabytes value %s: %w", data, err)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse megabytes value %q: %w", s, err)
	}
	*m = Megabytes(v)
	return nil
}

// TestUsage is the per-test slice of a usage report.
type TestUsage struct {
	TestID string    `json:"testId"`
	SizeMB Megabytes `json:"sizeMB"`
}

// UsageReport is the result of an on-demand usage calculation. PerTest
// preserves the order of the requested test ids.
type UsageReport struct {
	TotalSizeMB Megabytes   `json:"totalSizeMB"`
	PerTest     []TestUsage `json:"perTest"`
}
