package models

import (
	"bytes"
	"encoding/json"
)

// Opt is a tagged optional value. The zero value is undefined.
// Undefined is distinct from the zero value of T and is encoded as JSON null.
type Opt[T any] struct {
	V     T
	Valid bool
}

// Some returns a defined optional.
func Some[T any](v T) Opt[T] { return Opt[T]{V: v, Valid: true} }

// None returns an undefined optional.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is defined.
func (o Opt[T]) Get() (T, bool) { return o.V, o.Valid }

// Or returns the value, or def when undefined.
func (o Opt[T]) Or(def T) T {
	if !o.Valid {
		return def
	}
	return o.V
}

// Ptr returns a pointer to a copy of the value, nil when undefined.
func (o Opt[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.V
	return &v
}

// FromPtr converts a nullable pointer into an optional.
func FromPtr[T any](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Some(*p)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// OptFloat is the optional form used by every derived bar statistic.
type OptFloat = Opt[float64]
