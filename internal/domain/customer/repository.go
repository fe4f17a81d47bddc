package customer

import (
	"context"
	"customer-registry/internal/pkg/apperrors"
	"fmt"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrDuplicateCustomer = fmt.Errorf("customer with this contact identifier: %w", apperrors.ErrAlreadyExists)

	ErrAccountNumberTaken = fmt.Errorf("account number already assigned: %w", apperrors.ErrConflict)

	ErrAccountNumbersExhausted = fmt.Errorf("no free account number: %w", apperrors.ErrUnavailable)

	ErrInvalidStatus = fmt.Errorf("customer status: %w", apperrors.ErrInvalidArgument)
)

type CustomerRepository interface {
	// Create stores a new customer atomically. It fails with
	// ErrDuplicateCustomer when the contact identifier is taken, and with
	// ErrAccountNumberTaken when only the account number collides. On
	// success it fills CustomerID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, customer *Customer) error

	FindByContactID(ctx context.Context, contactID ContactID) (*Customer, error)

	FindByAccountNumber(ctx context.Context, accountNumber int) (*Customer, error)

	// FindAll returns customers in registration order. A nil status returns all.
	FindAll(ctx context.Context, status *Status) ([]*Customer, error)

	UpdateStatus(ctx context.Context, contactID ContactID, status Status) error

	CountByStatus(ctx context.Context) (map[Status]int, error)
}
