package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/facility-reservations/internal/persistence"
)

// sqliteTimeLayout is fixed width so TEXT comparisons order like instants.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// timeArg renders t for the dialect. SQLite stores UTC text; PostgreSQL takes
// timestamptz values.
func (s *Store) timeArg(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (s *Store) nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return s.timeArg(*t)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// dbTime scans either a driver time.Time or SQLite text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	parsed, err := scanTime(src)
	if err != nil {
		return err
	}
	if parsed == nil {
		return errors.New("sqlstore: unexpected NULL time")
	}
	t.Time = *parsed
	return nil
}

// nullTime is the nullable form of dbTime.
type nullTime struct {
	Ptr *time.Time
}

func (t *nullTime) Scan(src any) error {
	parsed, err := scanTime(src)
	if err != nil {
		return err
	}
	t.Ptr = parsed
	return nil
}

func scanTime(src any) (*time.Time, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case time.Time:
		u := v.UTC()
		return &u, nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	}
	return nil, fmt.Errorf("sqlstore: cannot scan %T into time", src)
}

func parseTimeText(s string) (*time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, time.DateTime} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("sqlstore: unrecognised time %q", s)
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// mapError converts driver errors into persistence sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", persistence.ErrNotFound, op)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s: %v", persistence.ErrDuplicate, op, err)
		case "23503":
			return fmt.Errorf("%w: %s: %v", persistence.ErrForeignKey, op, err)
		}
		return fmt.Errorf("%w: %s: %v", persistence.ErrQuery, op, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s: %v", persistence.ErrDuplicate, op, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s: %v", persistence.ErrForeignKey, op, err)
	}
	return fmt.Errorf("%w: %s: %v", persistence.ErrQuery, op, err)
}
