package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an id is absent from its store.
	ErrNotFound = errors.New("not found")
	// ErrFlightNotFound and ErrUserNotFound let BookFlight say which side
	// was missing; both match ErrNotFound.
	ErrFlightNotFound = fmt.Errorf("flight %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)

	ErrInvalidPayload  = errors.New("invalid payload")
	ErrAlreadyReserved = errors.New("this ticket is already reserved")
	ErrNotReserved     = errors.New("this ticket is not reserved")
	// ErrPassOutdated means a pass was sealed for a movie or seat the
	// ticket no longer has.
	ErrPassOutdated = errors.New("ticket pass does not match the current ticket")
)

// validation collects field violations so a caller sees all of them at once.
type validation struct {
	fields []string
}

func (v *validation) requireString(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fields = append(v.fields, field+" must not be empty")
	}
}

func (v *validation) requirePositive(field string, value uint64) {
	if value == 0 {
		v.fields = append(v.fields, field+" must be greater than zero")
	}
}

func (v *validation) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(v.fields, ", "))
}
