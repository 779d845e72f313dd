package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

type Service struct {
	repo   Repository
	tokens *auth.TokenIssuer
}

func NewService(repo Repository, tokens *auth.TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.Validation("Missing required fields")
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, apperror.Conflict("Email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = DefaultRole
	}

	u := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// Two registrations can race past the GetByEmail check; the
		// unique index on email decides, and the loser is a conflict.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

// Login verifies the credentials and issues a signed access token
// carrying {id, email, role}.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return "", nil, apperror.Validation("Missing required fields")
	}

	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, apperror.Internal(err)
	}
	if u == nil || !auth.CheckPassword(in.Password, u.PasswordHash) {
		return "", nil, apperror.Auth("Invalid email or password")
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return "", nil, apperror.Internal(err)
	}
	return token, u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}
