package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	contactIDConstraint     = "customers_contact_id_key"
	accountNumberConstraint = "customers_account_number_key"

	customerColumns = `id, name, age, address, contact_id, account_number, status, opening_balance::text, created_at, updated_at`

	insertCustomerQuery = `
        INSERT INTO customers (name, age, address, contact_id, account_number, status, opening_balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	findByContactIDQuery = `SELECT ` + customerColumns + ` FROM customers WHERE contact_id = $1`

	findByAccountNumberQuery = `SELECT ` + customerColumns + ` FROM customers WHERE account_number = $1`

	findAllQuery = `SELECT ` + customerColumns + ` FROM customers`

	updateStatusQuery = `UPDATE customers SET status = $1, updated_at = NOW() WHERE contact_id = $2`

	countByStatusQuery = `SELECT status, COUNT(*) FROM customers GROUP BY status`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.DebugContext(ctx, "Attempting to insert new customer", slog.Int("accountNumber", cust.AccountNumber))

	err := r.db.QueryRow(ctx, insertCustomerQuery,
		cust.Name,
		cust.Age,
		cust.Address,
		cust.ContactID.Key(),
		cust.AccountNumber,
		cust.Status.String(),
		cust.OpeningBalance.String(),
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			switch constraintName(err) {
			case contactIDConstraint:
				return customer.ErrDuplicateCustomer
			case accountNumberConstraint:
				return customer.ErrAccountNumberTaken
			}
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var (
		cust      customer.Customer
		contactID string
		status    string
		balance   string
	)
	err := row.Scan(
		&cust.CustomerID,
		&cust.Name,
		&cust.Age,
		&cust.Address,
		&contactID,
		&cust.AccountNumber,
		&status,
		&balance,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cust.ContactID = customer.ContactID(contactID)
	cust.Status = customer.Status(status)
	cust.OpeningBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid opening balance %q: %w", balance, err)
	}
	return &cust, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg any) (*customer.Customer, error) {
	cust, err := scanCustomer(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindByContactID(ctx context.Context, contactID customer.ContactID) (*customer.Customer, error) {
	return r.findOne(ctx, findByContactIDQuery, contactID.Key())
}

func (r *CustomerRepository) FindByAccountNumber(ctx context.Context, accountNumber int) (*customer.Customer, error) {
	return r.findOne(ctx, findByAccountNumberQuery, accountNumber)
}

func (r *CustomerRepository) FindAll(ctx context.Context, status *customer.Status) ([]*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find all customers")

	args := []any{}
	query := findAllQuery
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, status.String())
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) UpdateStatus(ctx context.Context, contactID customer.ContactID, status customer.Status) error {
	r.logger.InfoContext(ctx, "Attempting to update customer status", slog.String("status", status.String()))

	cmdTag, err := r.db.Exec(ctx, updateStatusQuery, status.String(), contactID.Key())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute update status", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer status: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update status affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	return nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) (map[customer.Status]int, error) {
	rows, err := r.db.Query(ctx, countByStatusQuery)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	counts := make(map[customer.Status]int)
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: failed to scan status count: %w", apperrors.ErrDatabase, err)
		}
		counts[customer.Status(status)] = int(count)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating status counts: %w", apperrors.ErrDatabase, err)
	}
	return counts, nil
}
