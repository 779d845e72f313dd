package refrange

import "context"

// Repository is the reference range store.
type Repository interface {
	Create(ctx context.Context, r *Range) error
	GetByID(ctx context.Context, id int) (*Range, error)
	Update(ctx context.Context, r *Range) error
	Delete(ctx context.Context, id int) error
	// List returns a page of ranges, optionally filtered by a
	// case-insensitive substring match on parameter, plus the total count.
	List(ctx context.Context, parameterFilter string, limit, offset int) ([]*Range, int, error)
	// Find looks up the range for a parameter, optionally narrowed by
	// test type. Parameter matching is case-insensitive. Returns nil
	// when no range is stored.
	Find(ctx context.Context, testType, parameter string) (*Range, error)
}
