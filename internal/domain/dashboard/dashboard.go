// Package dashboard computes the summary counters shown on the landing
// page: total patients, total lab tests and tests flagged abnormal,
// scoped to the acting user when a claim is present.
package dashboard

import (
	"context"

	"github.com/labtrack/labtrack/internal/platform/apperror"
)

// Summary is the dashboard counter set.
type Summary struct {
	PatientCount  int `json:"patientCount"`
	TestCount     int `json:"testCount"`
	AbnormalCount int `json:"abnormalCount"`
}

// Repository reads the aggregate counts.
type Repository interface {
	Counts(ctx context.Context, ownerID *int) (Summary, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Summary(ctx context.Context, ownerID *int) (Summary, error) {
	sum, err := s.repo.Counts(ctx, ownerID)
	if err != nil {
		return Summary{}, apperror.Internal(err)
	}
	return sum, nil
}
