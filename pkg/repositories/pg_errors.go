package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the engine translates into its error taxonomy.
const pgForeignKeyViolation = "23503"

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func pgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
