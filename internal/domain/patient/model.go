package patient

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for dates of birth.
const DateFormat = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Patient maps to the patients table. Rows are owned by the user who
// created them.
type Patient struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	DOB       Date   `json:"dob"`
	Gender    string `json:"gender"`
	CreatedBy int    `json:"created_by"`
}

// WithCounts is a patient row joined with its lab test aggregates for
// the listing endpoint.
type WithCounts struct {
	Patient
	TestCount     int `json:"test_count"`
	AbnormalCount int `json:"abnormal_count"`
}

// CreateInput is the payload for registering a patient.
type CreateInput struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

// UpdateInput is the partial payload for updating a patient.
type UpdateInput struct {
	Name   *string `json:"name"`
	DOB    *string `json:"dob"`
	Gender *string `json:"gender"`
}
