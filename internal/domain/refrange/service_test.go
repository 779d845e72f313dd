package refrange

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type mockRangeRepo struct {
	ranges map[int]*Range
	nextID int
}

func newMockRangeRepo() *mockRangeRepo {
	return &mockRangeRepo{ranges: make(map[int]*Range), nextID: 1}
}

func (m *mockRangeRepo) Create(_ context.Context, r *Range) error {
	r.ID = m.nextID
	m.nextID++
	m.ranges[r.ID] = r
	return nil
}

func (m *mockRangeRepo) GetByID(_ context.Context, id int) (*Range, error) {
	r, ok := m.ranges[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (m *mockRangeRepo) Update(_ context.Context, r *Range) error {
	if _, ok := m.ranges[r.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.ranges[r.ID] = r
	return nil
}

func (m *mockRangeRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.ranges[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.ranges, id)
	return nil
}

func (m *mockRangeRepo) List(_ context.Context, filter string, limit, offset int) ([]*Range, int, error) {
	var all []*Range
	for _, r := range m.ranges {
		if filter == "" || strings.Contains(strings.ToLower(r.Parameter), strings.ToLower(filter)) {
			all = append(all, r)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRangeRepo) Find(_ context.Context, testType, parameter string) (*Range, error) {
	for _, r := range m.ranges {
		if !strings.EqualFold(r.Parameter, parameter) {
			continue
		}
		if testType == "" || strings.EqualFold(r.TestType, testType) {
			return r, nil
		}
	}
	return nil, nil
}

func num(v float64) Numeric {
	return Numeric{Value: v, Set: true, Valid: true}
}

func TestCreateRange(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	r, err := svc.Create(context.Background(), CreateInput{
		TestType:  "CBC",
		Parameter: "hemoglobin",
		NormalMin: num(13.5),
		NormalMax: num(17.5),
		Units:     "g/dL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID == 0 {
		t.Error("expected assigned id")
	}
	if *r.NormalMin != 13.5 || *r.NormalMax != 17.5 {
		t.Errorf("bounds not persisted: %v, %v", *r.NormalMin, *r.NormalMax)
	}
}

func TestCreateRange_MissingFields(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	_, err := svc.Create(context.Background(), CreateInput{Parameter: "hemoglobin"})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.HasPrefix(appErr.Message, "Missing fields:") {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
	for _, field := range []string{"normal_min", "normal_max", "units"} {
		if !strings.Contains(appErr.Message, field) {
			t.Errorf("message should name %s: %q", field, appErr.Message)
		}
	}
}

func TestCreateRange_NonNumericBounds(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		TestType:  "CBC",
		Parameter: "hemoglobin",
		NormalMin: Numeric{Set: true},
		NormalMax: num(17.5),
		Units:     "g/dL",
	})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindUnprocessable {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
}

func TestCreateRange_NegativeBounds(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		TestType:  "CBC",
		Parameter: "hemoglobin",
		NormalMin: num(-1),
		NormalMax: num(17.5),
		Units:     "g/dL",
	})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindUnprocessable {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
}

func TestCreateRange_MinNotBelowMax(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		TestType:  "CBC",
		Parameter: "hemoglobin",
		NormalMin: num(17.5),
		NormalMax: num(13.5),
		Units:     "g/dL",
	})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindUnprocessable {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
	if appErr.Message != "normal_max must be greater than normal_min." {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}

func TestGetRange_NotFound(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	_, err := svc.Get(context.Background(), 99)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRange(t *testing.T) {
	repo := newMockRangeRepo()
	svc := NewService(repo)
	r, err := svc.Create(context.Background(), CreateInput{
		TestType: "CBC", Parameter: "hemoglobin",
		NormalMin: num(13.5), NormalMax: num(17.5), Units: "g/dL",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	units := "mmol/L"
	updated, err := svc.Update(context.Background(), r.ID, UpdateInput{
		Units:     &units,
		NormalMax: num(18.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Units != "mmol/L" {
		t.Errorf("units not updated: %q", updated.Units)
	}
	if *updated.NormalMax != 18.0 {
		t.Errorf("normal_max not updated: %v", *updated.NormalMax)
	}
	if *updated.NormalMin != 13.5 {
		t.Errorf("normal_min must be unchanged: %v", *updated.NormalMin)
	}
}

func TestUpdateRange_NoFields(t *testing.T) {
	repo := newMockRangeRepo()
	svc := NewService(repo)
	r, _ := svc.Create(context.Background(), CreateInput{
		TestType: "CBC", Parameter: "hemoglobin",
		NormalMin: num(13.5), NormalMax: num(17.5), Units: "g/dL",
	})

	_, err := svc.Update(context.Background(), r.ID, UpdateInput{})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRange_InvertsBounds(t *testing.T) {
	repo := newMockRangeRepo()
	svc := NewService(repo)
	r, _ := svc.Create(context.Background(), CreateInput{
		TestType: "CBC", Parameter: "hemoglobin",
		NormalMin: num(13.5), NormalMax: num(17.5), Units: "g/dL",
	})

	_, err := svc.Update(context.Background(), r.ID, UpdateInput{NormalMax: num(10.0)})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindUnprocessable {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
}

func TestDeleteRange_NotFound(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	err := svc.Delete(context.Background(), 99)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRanges_Empty(t *testing.T) {
	svc := NewService(newMockRangeRepo())

	items, total, err := svc.List(context.Background(), pagination.Params{Page: 1, PerPage: 20}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if total != 0 {
		t.Errorf("expected total 0, got %d", total)
	}
}

func TestFindRange_CaseInsensitive(t *testing.T) {
	repo := newMockRangeRepo()
	svc := NewService(repo)
	svc.Create(context.Background(), CreateInput{
		TestType: "CBC", Parameter: "Hemoglobin",
		NormalMin: num(13.5), NormalMax: num(17.5), Units: "g/dL",
	})

	r, err := svc.Find(context.Background(), "", "hemoglobin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected a match")
	}
}

func TestNumericUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		json  string
		set   bool
		valid bool
		value float64
	}{
		{"number", `{"normal_min":13.5}`, true, true, 13.5},
		{"numeric string", `{"normal_min":"13.5"}`, true, true, 13.5},
		{"non-numeric string", `{"normal_min":"abc"}`, true, false, 0},
		{"null", `{"normal_min":null}`, false, false, 0},
		{"absent", `{}`, false, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in CreateInput
			if err := json.Unmarshal([]byte(tc.json), &in); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if in.NormalMin.Set != tc.set {
				t.Errorf("Set: expected %v, got %v", tc.set, in.NormalMin.Set)
			}
			if in.NormalMin.Valid != tc.valid {
				t.Errorf("Valid: expected %v, got %v", tc.valid, in.NormalMin.Valid)
			}
			if in.NormalMin.Value != tc.value {
				t.Errorf("Value: expected %v, got %v", tc.value, in.NormalMin.Value)
			}
		})
	}
}
