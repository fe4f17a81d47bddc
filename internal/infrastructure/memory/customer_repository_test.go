package memory_test

import (
	"context"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/infrastructure/memory"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(contact string, accountNumber int) *customer.Customer {
	cust := customer.NewCustomer("Test User", 30, "1 Test St", customer.ContactID(contact), decimal.Zero)
	cust.AccountNumber = accountNumber
	return cust
}

func TestCustomerRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns ids in order", func(t *testing.T) {
		repo := memory.NewCustomerRepository()

		first := newCustomer("a@example.com", 10001)
		second := newCustomer("b@example.com", 10002)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		assert.Equal(t, int64(1), first.CustomerID)
		assert.Equal(t, int64(2), second.CustomerID)
		assert.Equal(t, 2, repo.Len())
	})

	t.Run("Duplicate contact", func(t *testing.T) {
		repo := memory.NewCustomerRepository()
		require.NoError(t, repo.Create(ctx, newCustomer("a@example.com", 10001)))

		err := repo.Create(ctx, newCustomer("A@Example.com", 10002))

		assert.ErrorIs(t, err, customer.ErrDuplicateCustomer)
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("Duplicate contact wins over account collision", func(t *testing.T) {
		repo := memory.NewCustomerRepository()
		require.NoError(t, repo.Create(ctx, newCustomer("a@example.com", 10001)))

		err := repo.Create(ctx, newCustomer("a@example.com", 10001))

		assert.ErrorIs(t, err, customer.ErrDuplicateCustomer)
	})

	t.Run("Account number taken", func(t *testing.T) {
		repo := memory.NewCustomerRepository()
		require.NoError(t, repo.Create(ctx, newCustomer("a@example.com", 10001)))

		err := repo.Create(ctx, newCustomer("b@example.com", 10001))

		assert.ErrorIs(t, err, customer.ErrAccountNumberTaken)
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("Cancelled context", func(t *testing.T) {
		repo := memory.NewCustomerRepository()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := repo.Create(cancelled, newCustomer("a@example.com", 10001))

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, repo.Len())
	})
}

func TestCustomerRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCustomerRepository()
	require.NoError(t, repo.Create(ctx, newCustomer("a@example.com", 10001)))

	byContact, err := repo.FindByContactID(ctx, customer.ContactID("a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 10001, byContact.AccountNumber)

	byAccount, err := repo.FindByAccountNumber(ctx, 10001)
	require.NoError(t, err)
	assert.Equal(t, byContact.CustomerID, byAccount.CustomerID)

	byContact.Status = customer.StatusBanned
	again, err := repo.FindByContactID(ctx, customer.ContactID("a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, customer.StatusActive, again.Status, "returned customers must be copies")

	_, err = repo.FindByContactID(ctx, customer.ContactID("missing@example.com"))
	assert.ErrorIs(t, err, customer.ErrNotFound)

	_, err = repo.FindByAccountNumber(ctx, 20002)
	assert.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCustomerRepository_FindAllAndCount(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCustomerRepository()
	for i, contact := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		require.NoError(t, repo.Create(ctx, newCustomer(contact, 10001+i)))
	}
	require.NoError(t, repo.UpdateStatus(ctx, customer.ContactID("a@example.com"), customer.StatusBlocked))

	all, err := repo.FindAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, customer.ContactID("c@example.com"), all[0].ContactID)
	assert.Equal(t, customer.ContactID("a@example.com"), all[1].ContactID)
	assert.Equal(t, customer.ContactID("b@example.com"), all[2].ContactID)

	blocked := customer.StatusBlocked
	filtered, err := repo.FindAll(ctx, &blocked)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, customer.ContactID("a@example.com"), filtered[0].ContactID)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[customer.Status]int{customer.StatusActive: 2, customer.StatusBlocked: 1}, counts)

	err = repo.UpdateStatus(ctx, customer.ContactID("missing@example.com"), customer.StatusClosed)
	assert.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCustomerRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCustomerRepository()

	const workers = 50
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newCustomer(fmt.Sprintf("user%d@example.com", i%5), 10000+i))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, customer.ErrDuplicateCustomer)
	}
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, repo.Len())
}
