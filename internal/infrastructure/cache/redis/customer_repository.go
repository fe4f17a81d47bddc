package redis

import (
	"context"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultKeyPrefix = "registry"

// keys builds every key under one cluster hash tag so the multi-key Lua
// scripts and pipelines always land on a single slot.
type keys struct {
	prefix string
}

func newKeys(prefix string) keys {
	if !strings.ContainsAny(prefix, "{}") {
		prefix = "{" + prefix + "}"
	}
	return keys{prefix: prefix}
}

func (k keys) customer(contactID customer.ContactID) string {
	return k.prefix + ":customer:" + contactID.Key()
}

func (k keys) account(accountNumber int) string {
	return k.prefix + ":account:" + strconv.Itoa(accountNumber)
}

func (k keys) sequence() string {
	return k.prefix + ":seq"
}

func (k keys) order() string {
	return k.prefix + ":order"
}

func (k keys) statusCounts() string {
	return k.prefix + ":status_counts"
}

// CustomerRepository stores each customer as a hash keyed by contact id.
// Check-and-insert runs as a single Lua script, so concurrent registrations
// for one contact id see exactly one success.
type CustomerRepository struct {
	client redis.UniversalClient
	keys   keys
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(client redis.UniversalClient, keyPrefix string, logger *slog.Logger) *CustomerRepository {
	if client == nil {
		panic("redis client cannot be nil for CustomerRepository")
	}
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerRepository{
		client: client,
		keys:   newKeys(keyPrefix),
		logger: logger.With("component", "RedisCustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	result, err := createCustomerScript.Run(ctx, r.client,
		[]string{
			r.keys.customer(cust.ContactID),
			r.keys.account(cust.AccountNumber),
			r.keys.sequence(),
			r.keys.order(),
			r.keys.statusCounts(),
		},
		cust.ContactID.Key(),
		cust.Name,
		cust.Age,
		cust.Address,
		cust.AccountNumber,
		cust.Status.String(),
		cust.OpeningBalance.String(),
		now.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to run create customer script", slog.Any("error", err))
		return apperrors.WrapStoreError(err, "failed to insert customer")
	}

	switch result {
	case createResultDuplicate:
		return customer.ErrDuplicateCustomer
	case createResultAccountTaken:
		return customer.ErrAccountNumberTaken
	}

	cust.CustomerID = result
	cust.CreatedAt = now
	cust.UpdatedAt = now
	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByContactID(ctx context.Context, contactID customer.ContactID) (*customer.Customer, error) {
	fields, err := r.client.HGetAll(ctx, r.keys.customer(contactID)).Result()
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "failed to get customer")
	}
	if len(fields) == 0 {
		return nil, customer.ErrNotFound
	}
	return decodeCustomer(fields)
}

func (r *CustomerRepository) FindByAccountNumber(ctx context.Context, accountNumber int) (*customer.Customer, error) {
	contactID, err := r.client.Get(ctx, r.keys.account(accountNumber)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "failed to resolve account number")
	}
	return r.FindByContactID(ctx, customer.ContactID(contactID))
}

func (r *CustomerRepository) FindAll(ctx context.Context, status *customer.Status) ([]*customer.Customer, error) {
	contactIDs, err := r.client.LRange(ctx, r.keys.order(), 0, -1).Result()
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "failed to read registration order")
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(contactIDs))
	for i, id := range contactIDs {
		cmds[i] = pipe.HGetAll(ctx, r.keys.customer(customer.ContactID(id)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, apperrors.WrapStoreError(err, "failed to load customers")
		}
	}

	customers := make([]*customer.Customer, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		cust, err := decodeCustomer(fields)
		if err != nil {
			return nil, err
		}
		if status != nil && cust.Status != *status {
			continue
		}
		customers = append(customers, cust)
	}
	return customers, nil
}

func (r *CustomerRepository) UpdateStatus(ctx context.Context, contactID customer.ContactID, status customer.Status) error {
	result, err := updateStatusScript.Run(ctx, r.client,
		[]string{r.keys.customer(contactID), r.keys.statusCounts()},
		status.String(),
		time.Now().UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to run update status script", slog.Any("error", err))
		return apperrors.WrapStoreError(err, "failed to update customer status")
	}
	if result == updateResultMissing {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) (map[customer.Status]int, error) {
	raw, err := r.client.HGetAll(ctx, r.keys.statusCounts()).Result()
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "failed to count customers")
	}

	counts := make(map[customer.Status]int, len(raw))
	for status, value := range raw {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid count %q for status %s", apperrors.ErrInternalServer, value, status)
		}
		if n > 0 {
			counts[customer.Status(status)] = n
		}
	}
	return counts, nil
}

func decodeCustomer(fields map[string]string) (*customer.Customer, error) {
	var (
		cust customer.Customer
		err  error
	)
	fail := func(field string, cause error) (*customer.Customer, error) {
		return nil, fmt.Errorf("%w: corrupt customer field %s: %w", apperrors.ErrInternalServer, field, cause)
	}

	if cust.CustomerID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return fail("id", err)
	}
	if cust.Age, err = strconv.Atoi(fields["age"]); err != nil {
		return fail("age", err)
	}
	if cust.AccountNumber, err = strconv.Atoi(fields["account_number"]); err != nil {
		return fail("account_number", err)
	}
	if cust.OpeningBalance, err = decimal.NewFromString(fields["opening_balance"]); err != nil {
		return fail("opening_balance", err)
	}
	if cust.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return fail("created_at", err)
	}
	if cust.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return fail("updated_at", err)
	}

	cust.Name = fields["name"]
	cust.Address = fields["address"]
	cust.ContactID = customer.ContactID(fields["contact_id"])
	cust.Status = customer.Status(fields["status"])
	return &cust, nil
}
