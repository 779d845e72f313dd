package labtest

import (
	"context"
	"strings"

	"github.com/labtrack/labtrack/internal/platform/apperror"
)

// PatientFinder resolves whether a patient row exists. Satisfied by the
// patient repository.
type PatientFinder interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type Service struct {
	repo      Repository
	patients  PatientFinder
	evaluator *Evaluator
}

func NewService(repo Repository, patients PatientFinder, evaluator *Evaluator) *Service {
	return &Service{repo: repo, patients: patients, evaluator: evaluator}
}

// Create validates the payload, resolves the patient, computes the
// abnormal flag and persists the test. Validation happens before any
// write; a failed create persists nothing.
func (s *Service) Create(ctx context.Context, in CreateInput) (*LabTest, Evaluation, error) {
	if strings.TrimSpace(in.Parameter) == "" || in.ResultValues == nil || in.PatientID == 0 {
		return nil, Evaluation{}, apperror.Validation("Missing required fields")
	}
	_, hasValue := in.ResultValues["value"]
	measurements := 0
	for k := range in.ResultValues {
		if !annotationKeys[strings.ToLower(k)] {
			measurements++
		}
	}
	if measurements == 0 || (hasValue && !hasAnnotation(in.ResultValues, "unit")) {
		return nil, Evaluation{}, apperror.Validation("result_values must be a dictionary with 'value' and 'unit'")
	}

	exists, err := s.patients.Exists(ctx, in.PatientID)
	if err != nil {
		return nil, Evaluation{}, apperror.Internal(err)
	}
	if !exists {
		return nil, Evaluation{}, apperror.NotFound("Patient not found")
	}

	ev, err := s.evaluator.Evaluate(ctx, in.Parameter, in.ResultValues)
	if err != nil {
		return nil, Evaluation{}, apperror.Internal(err)
	}

	t := &LabTest{
		Parameter:    strings.TrimSpace(in.Parameter),
		ResultValues: in.ResultValues,
		Flagged:      ev.Flagged,
		PatientID:    in.PatientID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, Evaluation{}, apperror.Internal(err)
	}
	return t, ev, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID int) ([]*LabTest, error) {
	tests, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if tests == nil {
		tests = []*LabTest{}
	}
	return tests, nil
}

func (s *Service) ListAll(ctx context.Context, ownerID *int) ([]*WithPatient, error) {
	tests, err := s.repo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if tests == nil {
		tests = []*WithPatient{}
	}
	return tests, nil
}

func hasAnnotation(values map[string]interface{}, key string) bool {
	for k := range values {
		if strings.EqualFold(k, key) || strings.EqualFold(k, key+"s") {
			return true
		}
	}
	return false
}
