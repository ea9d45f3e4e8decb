package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB scans and writes a postgres jsonb column into T.
type JSONB[T any] struct {
	Data T
}

func NewJSONB[T any](data T) JSONB[T] {
	return JSONB[T]{Data: data}
}

func (p *JSONB[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		var zero T
		p.Data = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &p.Data)
	case string:
		return json.Unmarshal([]byte(v), &p.Data)
	default:
		return fmt.Errorf("JSONB.Scan: expected []byte, got %T", src)
	}
}

// Value writes the document as text so the driver does not send it as bytea.
func (p JSONB[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (p *JSONB[T]) GetValue() T {
	return p.Data
}
