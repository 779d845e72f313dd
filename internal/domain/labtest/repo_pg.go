package labtest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (p *repoPG) Create(ctx context.Context, t *LabTest) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO lab_tests (parameter, result_values, flagged, patient_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date_conducted`,
		t.Parameter, t.ResultValues, t.Flagged, t.PatientID).
		Scan(&t.ID, &t.DateConducted)
}

func (p *repoPG) ListByPatient(ctx context.Context, patientID int) ([]*LabTest, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, parameter, result_values, date_conducted, flagged, patient_id
		FROM lab_tests
		WHERE patient_id = $1
		ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*LabTest
	for rows.Next() {
		var t LabTest
		if err := rows.Scan(&t.ID, &t.Parameter, &t.ResultValues, &t.DateConducted, &t.Flagged, &t.PatientID); err != nil {
			return nil, err
		}
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}

func (p *repoPG) ListAll(ctx context.Context, ownerID *int) ([]*WithPatient, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.id, t.parameter, t.result_values, t.date_conducted, t.flagged, t.patient_id,
		       COALESCE(p.name, '')
		FROM lab_tests t
		LEFT JOIN patients p ON p.id = t.patient_id
		WHERE $1::int IS NULL OR p.created_by = $1
		ORDER BY t.id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*WithPatient
	for rows.Next() {
		var t WithPatient
		if err := rows.Scan(&t.ID, &t.Parameter, &t.ResultValues, &t.DateConducted, &t.Flagged, &t.PatientID, &t.PatientName); err != nil {
			return nil, err
		}
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}
