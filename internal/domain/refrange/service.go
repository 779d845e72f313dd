package refrange

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Find returns the stored range for a parameter, nil when none exists.
// It is the lookup the flagging evaluator consults.
func (s *Service) Find(ctx context.Context, testType, parameter string) (*Range, error) {
	r, err := s.repo.Find(ctx, testType, parameter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Range, error) {
	var missing []string
	if strings.TrimSpace(in.Parameter) == "" {
		missing = append(missing, "parameter")
	}
	if !in.NormalMin.Set {
		missing = append(missing, "normal_min")
	}
	if !in.NormalMax.Set {
		missing = append(missing, "normal_max")
	}
	if strings.TrimSpace(in.Units) == "" {
		missing = append(missing, "units")
	}
	if len(missing) > 0 {
		return nil, apperror.Validation("Missing fields: %s", strings.Join(missing, ", "))
	}

	if !in.NormalMin.Valid || !in.NormalMax.Valid {
		return nil, apperror.Unprocessable("normal_min and normal_max must be numbers.")
	}
	min, max := in.NormalMin.Value, in.NormalMax.Value
	if min < 0 || max < 0 {
		return nil, apperror.Unprocessable("normal_min and normal_max must be positive numbers.")
	}
	if min >= max {
		return nil, apperror.Unprocessable("normal_max must be greater than normal_min.")
	}

	r := &Range{
		TestType:  strings.TrimSpace(in.TestType),
		Parameter: strings.TrimSpace(in.Parameter),
		NormalMin: &min,
		NormalMax: &max,
		Units:     strings.TrimSpace(in.Units),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperror.Internal(err)
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Range, error) {
	r, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Reference range not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*Range, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := false
	if in.TestType != nil && strings.TrimSpace(*in.TestType) != "" {
		r.TestType = strings.TrimSpace(*in.TestType)
		updated = true
	}
	if in.Parameter != nil && strings.TrimSpace(*in.Parameter) != "" {
		r.Parameter = strings.TrimSpace(*in.Parameter)
		updated = true
	}
	if in.Units != nil && strings.TrimSpace(*in.Units) != "" {
		r.Units = strings.TrimSpace(*in.Units)
		updated = true
	}
	if in.NormalMin.Set {
		if !in.NormalMin.Valid {
			return nil, apperror.Unprocessable("normal_min must be a number.")
		}
		if in.NormalMin.Value < 0 {
			return nil, apperror.Unprocessable("normal_min must be a positive number.")
		}
		v := in.NormalMin.Value
		r.NormalMin = &v
		updated = true
	}
	if in.NormalMax.Set {
		if !in.NormalMax.Valid {
			return nil, apperror.Unprocessable("normal_max must be a number.")
		}
		if in.NormalMax.Value < 0 {
			return nil, apperror.Unprocessable("normal_max must be a positive number.")
		}
		v := in.NormalMax.Value
		r.NormalMax = &v
		updated = true
	}
	if !updated {
		return nil, apperror.Validation("No valid fields to update.")
	}

	if r.NormalMin != nil && r.NormalMax != nil && *r.NormalMin >= *r.NormalMax {
		return nil, apperror.Unprocessable("normal_max must be greater than normal_min.")
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, apperror.Internal(err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("Reference range not found")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, p pagination.Params, parameterFilter string) ([]*Range, int, error) {
	items, total, err := s.repo.List(ctx, parameterFilter, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	if items == nil {
		items = []*Range{}
	}
	return items, total, nil
}
