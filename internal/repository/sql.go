package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

const uniqueViolation = "23505"

// where accumulates positional predicates. Each clause format receives its
// placeholder index as %[1]d.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *where) anyOf(column string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add(column+" = ANY($%[1]d)", values)
}

func (w *where) timeRange(column string, from, to *time.Time) {
	if from != nil {
		w.add(column+" >= $%[1]d", *from)
	}
	if to != nil {
		w.add(column+" <= $%[1]d", *to)
	}
}

func (w *where) search(term *string, columns ...string) {
	lowered, ok := searchTerm(term)
	if !ok {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE $%%[1]d ESCAPE '\'`, col)
	}
	w.add("("+strings.Join(parts, " OR ")+")", "%"+escapeLike(lowered)+"%")
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return "1=1"
	}
	return strings.Join(w.clauses, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func strs[S ~string](in []S) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// mapError translates driver errors into repository sentinels.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return pkgerrors.Wrap(ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pkgerrors.Wrapf(ErrDuplicate, "%s: %s", op, pgErr.ConstraintName)
	}
	return pkgerrors.Wrap(err, op)
}

func requireAffected(tag pgconn.CommandTag, op string) error {
	if tag.RowsAffected() == 0 {
		return pkgerrors.Wrap(ErrNotFound, op)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan and always returns a non-nil slice.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
