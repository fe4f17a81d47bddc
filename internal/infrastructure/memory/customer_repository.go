package memory

import (
	"context"
	"customer-registry/internal/domain/customer"
	"sync"
	"time"
)

// CustomerRepository keeps the registry in process memory. The zero value is
// not usable; use NewCustomerRepository.
type CustomerRepository struct {
	mu        sync.RWMutex
	byContact map[string]*customer.Customer
	byAccount map[int]*customer.Customer
	order     []*customer.Customer
	nextID    int64
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		byContact: make(map[string]*customer.Customer),
		byAccount: make(map[int]*customer.Customer),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cust.ContactID.Key()
	if _, exists := r.byContact[key]; exists {
		return customer.ErrDuplicateCustomer
	}
	if _, taken := r.byAccount[cust.AccountNumber]; taken {
		return customer.ErrAccountNumberTaken
	}

	r.nextID++
	now := time.Now()
	cust.CustomerID = r.nextID
	cust.CreatedAt = now
	cust.UpdatedAt = now

	stored := cust.Clone()
	r.byContact[key] = stored
	r.byAccount[stored.AccountNumber] = stored
	r.order = append(r.order, stored)
	return nil
}

func (r *CustomerRepository) FindByContactID(ctx context.Context, contactID customer.ContactID) (*customer.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byContact[contactID.Key()]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return stored.Clone(), nil
}

func (r *CustomerRepository) FindByAccountNumber(ctx context.Context, accountNumber int) (*customer.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byAccount[accountNumber]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return stored.Clone(), nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, status *customer.Status) ([]*customer.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	customers := make([]*customer.Customer, 0, len(r.order))
	for _, stored := range r.order {
		if status != nil && stored.Status != *status {
			continue
		}
		customers = append(customers, stored.Clone())
	}
	return customers, nil
}

func (r *CustomerRepository) UpdateStatus(ctx context.Context, contactID customer.ContactID, status customer.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byContact[contactID.Key()]
	if !ok {
		return customer.ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) (map[customer.Status]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[customer.Status]int)
	for _, stored := range r.order {
		counts[stored.Status]++
	}
	return counts, nil
}

func (r *CustomerRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
