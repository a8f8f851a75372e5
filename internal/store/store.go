package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
)

var (
	ErrNotFound        = fmt.Errorf("%w: record not found", apperr.ErrNotFound)
	ErrVersionConflict = fmt.Errorf("%w: record was modified concurrently", apperr.ErrConflict)
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// jsonColumn stores a value as JSON text. Value returns a string so lib/pq writes
// it as text rather than bytea.
type jsonColumn[T any] struct {
	V T
}

func (c jsonColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *jsonColumn[T]) Scan(src any) error {
	var zero T
	switch v := src.(type) {
	case nil:
		c.V = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &c.V)
	case string:
		return json.Unmarshal([]byte(v), &c.V)
	default:
		return fmt.Errorf("json column: unsupported type %T", src)
	}
}

func checkVersion(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}
