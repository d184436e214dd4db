package services

import (
	"errors"
	"fmt"

	"bioshop/models"
	"bioshop/store"
)

var (
	// ErrValidation marks missing or out-of-range input.
	ErrValidation = models.ErrInvalid
	// ErrNotFound covers missing entities and items outside the caller's cart.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when concurrent writers keep winning.
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("invalid credentials")
)

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// orNotFound replaces a store miss with a NotFound naming what.
func orNotFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return err
}
