// Package repository turns a kv.Store into a typed record store. It holds no
// business rules: only encoding and the find/list/save/erase mechanics.
package repository

import (
	"context"
	"fmt"

	"ms-bookings/internal/codec"
	"ms-bookings/internal/kv"
)

type Repository[T any] struct {
	store kv.Store
	name  string
}

// New wraps store. name is used in error messages only.
func New[T any](store kv.Store, name string) *Repository[T] {
	return &Repository[T]{store: store, name: name}
}

// Find returns the record stored under id; ok is false when there is none.
func (r *Repository[T]) Find(ctx context.Context, id string) (record T, ok bool, err error) {
	raw, ok, err := r.store.Get(ctx, id)
	if err != nil || !ok {
		return record, false, err
	}
	if err := codec.Unmarshal(raw, &record); err != nil {
		return record, false, fmt.Errorf("decode %s %s: %w", r.name, id, err)
	}
	return record, true, nil
}

// List returns every record in key order.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	values, err := r.store.Values(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(values))
	for i, raw := range values {
		var record T
		if err := codec.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode %s #%d: %w", r.name, i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Save stores record under id, replacing and returning any previous record.
func (r *Repository[T]) Save(ctx context.Context, id string, record T) (previous T, existed bool, err error) {
	raw, err := codec.Marshal(record)
	if err != nil {
		return previous, false, fmt.Errorf("encode %s %s: %w", r.name, id, err)
	}
	old, existed, err := r.store.Insert(ctx, id, raw)
	if err != nil || !existed {
		return previous, false, err
	}
	if err := codec.Unmarshal(old, &previous); err != nil {
		return previous, true, fmt.Errorf("decode previous %s %s: %w", r.name, id, err)
	}
	return previous, true, nil
}

// Erase removes id and returns the record it held.
func (r *Repository[T]) Erase(ctx context.Context, id string) (record T, existed bool, err error) {
	raw, existed, err := r.store.Remove(ctx, id)
	if err != nil || !existed {
		return record, false, err
	}
	if err := codec.Unmarshal(raw, &record); err != nil {
		return record, true, fmt.Errorf("decode %s %s: %w", r.name, id, err)
	}
	return record, true, nil
}
