package patient

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, dob, gender, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		p.Name, p.DOB.Time, p.Gender, p.CreatedBy).Scan(&p.ID)
}

func (r *repoPG) List(ctx context.Context, ownerID *int) ([]*WithCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.dob, p.gender, p.created_by,
		       COUNT(t.id), COUNT(t.id) FILTER (WHERE t.flagged)
		FROM patients p
		LEFT JOIN lab_tests t ON t.patient_id = p.id
		WHERE $1::int IS NULL OR p.created_by = $1
		GROUP BY p.id
		ORDER BY p.id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*WithCounts
	for rows.Next() {
		var p WithCounts
		var dob time.Time
		if err := rows.Scan(&p.ID, &p.Name, &dob, &p.Gender, &p.CreatedBy, &p.TestCount, &p.AbnormalCount); err != nil {
			return nil, err
		}
		p.DOB = Date{dob}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id, ownerID int) (*Patient, error) {
	var p Patient
	var dob time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, dob, gender, created_by
		FROM patients
		WHERE id = $1 AND created_by = $2`, id, ownerID).
		Scan(&p.ID, &p.Name, &dob, &p.Gender, &p.CreatedBy)
	if err != nil {
		return nil, err
	}
	p.DOB = Date{dob}
	return &p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $3, dob = $4, gender = $5
		WHERE id = $1 AND created_by = $2`,
		p.ID, p.CreatedBy, p.Name, p.DOB.Time, p.Gender)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the patient row; owned lab tests go with it via the
// ON DELETE CASCADE foreign key.
func (r *repoPG) Delete(ctx context.Context, id, ownerID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
