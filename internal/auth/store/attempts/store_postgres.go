package attempts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"firtrace/internal/auth"
)

// PostgresAttemptStore persists the attempt log in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS auth_attempts (
//	    id          BIGSERIAL PRIMARY KEY,
//	    address     TEXT        NOT NULL,
//	    succeeded   BOOLEAN     NOT NULL,
//	    device      TEXT        NOT NULL DEFAULT '',
//	    client_ip   TEXT        NOT NULL DEFAULT '',
//	    fail_reason TEXT        NOT NULL DEFAULT '',
//	    attempted_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS auth_attempts_address_idx ON auth_attempts (address, attempted_at DESC);
type PostgresAttemptStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresAttemptStore {
	return &PostgresAttemptStore{pool: pool}
}

func (s *PostgresAttemptStore) Append(ctx context.Context, attempt auth.Attempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_attempts (address, succeeded, device, client_ip, fail_reason, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.Address, attempt.Succeeded, attempt.Device, attempt.ClientIP, attempt.FailReason, attempt.At,
	)
	if err != nil {
		return fmt.Errorf("insert auth attempt: %w", err)
	}
	return nil
}

// ByAddress returns attempts recorded for an address, oldest first.
func (s *PostgresAttemptStore) ByAddress(ctx context.Context, address string) ([]auth.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT address, succeeded, device, client_ip, fail_reason, attempted_at
		 FROM auth_attempts WHERE address = $1 ORDER BY attempted_at ASC`,
		address,
	)
	if err != nil {
		return nil, fmt.Errorf("query auth attempts: %w", err)
	}
	defer rows.Close()

	out := make([]auth.Attempt, 0)
	for rows.Next() {
		var a auth.Attempt
		if err := rows.Scan(&a.Address, &a.Succeeded, &a.Device, &a.ClientIP, &a.FailReason, &a.At); err != nil {
			return nil, fmt.Errorf("scan auth attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
