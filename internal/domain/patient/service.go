package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/labtrack/labtrack/internal/platform/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy int) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.DOB) == "" || strings.TrimSpace(in.Gender) == "" {
		return nil, apperror.Validation("Missing required fields")
	}

	dob, err := time.Parse(DateFormat, strings.TrimSpace(in.DOB))
	if err != nil {
		return nil, apperror.Validation("dob must be a date in YYYY-MM-DD format")
	}

	p := &Patient{
		Name:      strings.TrimSpace(in.Name),
		DOB:       Date{dob},
		Gender:    strings.TrimSpace(in.Gender),
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, ownerID *int) ([]*WithCounts, error) {
	patients, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if patients == nil {
		patients = []*WithCounts{}
	}
	return patients, nil
}

func (s *Service) Get(ctx context.Context, id, ownerID int) (*Patient, error) {
	p, err := s.repo.Get(ctx, id, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Patient not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id, ownerID int, in UpdateInput) (*Patient, error) {
	p, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.DOB != nil && strings.TrimSpace(*in.DOB) != "" {
		dob, err := time.Parse(DateFormat, strings.TrimSpace(*in.DOB))
		if err != nil {
			return nil, apperror.Validation("dob must be a date in YYYY-MM-DD format")
		}
		p.DOB = Date{dob}
	}
	if in.Gender != nil && strings.TrimSpace(*in.Gender) != "" {
		p.Gender = strings.TrimSpace(*in.Gender)
	}

	err = s.repo.Update(ctx, p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Patient not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID int) error {
	err := s.repo.Delete(ctx, id, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("Patient not found")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
