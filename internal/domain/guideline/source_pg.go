package guideline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SourcePG loads guideline rows from the guideline table. Rows are read
// as text so that ParseRows owns all value interpretation.
type SourcePG struct {
	pool *pgxpool.Pool
}

func NewSourcePG(pool *pgxpool.Pool) *SourcePG {
	return &SourcePG{pool: pool}
}

func (s *SourcePG) LoadRows(ctx context.Context) ([][]string, error) {
	const q = `
		SELECT id::text, antibiotic, critically_ill::text,
		       ga_min::text, ga_max::text,
		       pna_min::text, pna_max::text,
		       dose_min::text, dose_max::text,
		       frequency_min::text, frequency_max::text
		FROM guideline
		ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query guidelines: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, 11)
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan guideline row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guidelines: %w", err)
	}
	return out, nil
}
