// Package kv is an ordered, namespaced key-value store.
//
// Several logical stores share one physical table or key space; each Store
// value is bound to a single Namespace and never sees the keys of another.
// Values are opaque bytes and are enumerated in ascending key order.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// Namespace separates independent stores inside the same backend.
type Namespace int16

const (
	Tickets Namespace = 0
	Flights Namespace = 1
	Users   Namespace = 2
)

func (n Namespace) String() string {
	switch n {
	case Tickets:
		return "tickets"
	case Flights:
		return "flights"
	case Users:
		return "users"
	default:
		return fmt.Sprintf("namespace-%d", int16(n))
	}
}

var (
	ErrKeyTooLarge   = errors.New("kv: key exceeds size limit")
	ErrValueTooLarge = errors.New("kv: value exceeds size limit")
)

// Store is the contract every backend implements. A missing key is not an
// error: Get and Remove report it through the boolean.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Insert writes value under key and returns the value it replaced.
	Insert(ctx context.Context, key string, value []byte) (previous []byte, existed bool, err error)
	// Remove deletes key and returns the value it held.
	Remove(ctx context.Context, key string) (previous []byte, existed bool, err error)
	// Values returns every value in ascending key order.
	Values(ctx context.Context) ([][]byte, error)
}

// Limits bounds key and value sizes in bytes.
type Limits struct {
	MaxKeySize   int
	MaxValueSize int
}

// DefaultLimits sits well above the largest record the service writes.
var DefaultLimits = Limits{MaxKeySize: 64, MaxValueSize: 64 << 10}

func (l Limits) checkKey(key string) error {
	if l.MaxKeySize > 0 && len(key) > l.MaxKeySize {
		return fmt.Errorf("%w: %d > %d bytes", ErrKeyTooLarge, len(key), l.MaxKeySize)
	}
	return nil
}

func (l Limits) checkValue(value []byte) error {
	if l.MaxValueSize > 0 && len(value) > l.MaxValueSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrValueTooLarge, len(value), l.MaxValueSize)
	}
	return nil
}
