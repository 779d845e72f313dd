package identity

import "context"

// Repository persists user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByEmail returns nil when no account has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}
