package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Counts(ctx context.Context, ownerID *int) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients p
			 WHERE $1::int IS NULL OR p.created_by = $1),
			(SELECT COUNT(*) FROM lab_tests t
			 JOIN patients p ON p.id = t.patient_id
			 WHERE $1::int IS NULL OR p.created_by = $1),
			(SELECT COUNT(*) FROM lab_tests t
			 JOIN patients p ON p.id = t.patient_id
			 WHERE t.flagged AND ($1::int IS NULL OR p.created_by = $1))`,
		ownerID).Scan(&s.PatientCount, &s.TestCount, &s.AbnormalCount)
	return s, err
}
