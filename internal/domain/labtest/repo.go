package labtest

import "context"

// Repository persists lab tests. Tests are insert-only.
type Repository interface {
	Create(ctx context.Context, t *LabTest) error
	ListByPatient(ctx context.Context, patientID int) ([]*LabTest, error)
	// ListAll returns tests newest-first by id, joined with the patient
	// name. When ownerID is non-nil the listing is scoped to patients
	// created by that user.
	ListAll(ctx context.Context, ownerID *int) ([]*WithPatient, error)
}
