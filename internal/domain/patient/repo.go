package patient

import "context"

// Repository persists patients. Get, Update and Delete match on both id
// and owner so one user can never reach another user's records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	// List returns patients with their test aggregates. A nil ownerID
	// returns every patient.
	List(ctx context.Context, ownerID *int) ([]*WithCounts, error)
	Get(ctx context.Context, id, ownerID int) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id, ownerID int) error
	Exists(ctx context.Context, id int) (bool, error)
}
