package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// nullUUID maps an empty id to SQL NULL.
func nullUUID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching value as a literal
// substring. Empty input stays empty so the filter is skipped.
func containsPattern(value string) string {
	if value == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(value) + "%"
}
