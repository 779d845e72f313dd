package refrange

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const rangeCols = `id, test_type, parameter, normal_min, normal_max, units`

func scanRange(row pgx.Row) (*Range, error) {
	var r Range
	err := row.Scan(&r.ID, &r.TestType, &r.Parameter, &r.NormalMin, &r.NormalMax, &r.Units)
	return &r, err
}

func (p *repoPG) Create(ctx context.Context, r *Range) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO reference_ranges (test_type, parameter, normal_min, normal_max, units)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		r.TestType, r.Parameter, r.NormalMin, r.NormalMax, r.Units).Scan(&r.ID)
}

func (p *repoPG) GetByID(ctx context.Context, id int) (*Range, error) {
	return scanRange(p.pool.QueryRow(ctx,
		`SELECT `+rangeCols+` FROM reference_ranges WHERE id = $1`, id))
}

func (p *repoPG) Update(ctx context.Context, r *Range) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE reference_ranges
		SET test_type = $2, parameter = $3, normal_min = $4, normal_max = $5, units = $6
		WHERE id = $1`,
		r.ID, r.TestType, r.Parameter, r.NormalMin, r.NormalMax, r.Units)
	return err
}

func (p *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM reference_ranges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (p *repoPG) List(ctx context.Context, parameterFilter string, limit, offset int) ([]*Range, int, error) {
	query := `SELECT ` + rangeCols + ` FROM reference_ranges`
	countQuery := `SELECT COUNT(*) FROM reference_ranges`
	var args []interface{}
	idx := 1

	if parameterFilter != "" {
		cond := fmt.Sprintf(` WHERE parameter ILIKE $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, "%"+parameterFilter+"%")
		idx++
	}

	var total int
	if err := p.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Range
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (p *repoPG) Find(ctx context.Context, testType, parameter string) (*Range, error) {
	var row pgx.Row
	if testType != "" {
		row = p.pool.QueryRow(ctx, `
			SELECT `+rangeCols+` FROM reference_ranges
			WHERE LOWER(test_type) = LOWER($1) AND LOWER(parameter) = LOWER($2)
			ORDER BY id LIMIT 1`, testType, parameter)
	} else {
		row = p.pool.QueryRow(ctx, `
			SELECT `+rangeCols+` FROM reference_ranges
			WHERE LOWER(parameter) = LOWER($1)
			ORDER BY id LIMIT 1`, parameter)
	}

	r, err := scanRange(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
