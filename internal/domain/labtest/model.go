package labtest

import "time"

// LabTest maps to the lab_tests table. A test is immutable once
// recorded; flagged is computed at creation time and never revised.
type LabTest struct {
	ID            int                    `json:"id"`
	Parameter     string                 `json:"parameter"`
	ResultValues  map[string]interface{} `json:"result_values"`
	DateConducted time.Time              `json:"date_conducted"`
	Flagged       bool                   `json:"flagged"`
	PatientID     int                    `json:"patient_id"`
}

// WithPatient is a lab test joined with the owning patient's name for
// the cross-patient listing.
type WithPatient struct {
	LabTest
	PatientName string `json:"patient_name"`
}

// CreateInput is the payload for recording a lab test.
type CreateInput struct {
	Parameter    string                 `json:"parameter"`
	ResultValues map[string]interface{} `json:"result_values"`
	PatientID    int                    `json:"patient_id"`
}
