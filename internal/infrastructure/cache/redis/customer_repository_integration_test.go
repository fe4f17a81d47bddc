//go:build integration

package redis_test

import (
	"context"
	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	registryredis "customer-registry/internal/infrastructure/cache/redis"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisRepositorySuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *registryredis.Client
	repo      *registryredis.CustomerRepository
}

func TestRedisRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRepositorySuite))
}

func (s *RedisRepositorySuite) SetupSuite() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(s.T(), container)
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	s.client, err = registryredis.NewClient(ctx, config.RedisConfig{URL: url}, logger)
	s.Require().NoError(err)
	s.repo = registryredis.NewCustomerRepository(s.client, "test", logger)
}

func (s *RedisRepositorySuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *RedisRepositorySuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func newCustomer(contact string, accountNumber int) *customer.Customer {
	cust := customer.NewCustomer("Redis User", 28, "Cache Lane", customer.ContactID(contact), decimal.RequireFromString("5.25"))
	cust.AccountNumber = accountNumber
	return cust
}

func (s *RedisRepositorySuite) TestCreateAndFind() {
	ctx := context.Background()

	first := newCustomer("a@example.com", 10001)
	s.Require().NoError(s.repo.Create(ctx, first))
	s.Equal(int64(1), first.CustomerID)

	s.ErrorIs(s.repo.Create(ctx, newCustomer("A@example.com", 10002)), customer.ErrDuplicateCustomer)
	s.ErrorIs(s.repo.Create(ctx, newCustomer("b@example.com", 10001)), customer.ErrAccountNumberTaken)

	found, err := s.repo.FindByAccountNumber(ctx, 10001)
	s.Require().NoError(err)
	s.Equal(customer.ContactID("a@example.com"), found.ContactID)
	s.Equal("5.25", found.OpeningBalance.String())

	_, err = s.repo.FindByContactID(ctx, customer.ContactID("nobody@example.com"))
	s.ErrorIs(err, customer.ErrNotFound)
	_, err = s.repo.FindByAccountNumber(ctx, 99999)
	s.ErrorIs(err, customer.ErrNotFound)
}

func (s *RedisRepositorySuite) TestStatusAndCounts() {
	ctx := context.Background()
	for i, contact := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		s.Require().NoError(s.repo.Create(ctx, newCustomer(contact, 20000+i)))
	}

	s.Require().NoError(s.repo.UpdateStatus(ctx, customer.ContactID("a@example.com"), customer.StatusClosed))
	s.Require().NoError(s.repo.UpdateStatus(ctx, customer.ContactID("a@example.com"), customer.StatusClosed))
	s.ErrorIs(s.repo.UpdateStatus(ctx, customer.ContactID("zz@example.com"), customer.StatusClosed), customer.ErrNotFound)

	all, err := s.repo.FindAll(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(customer.ContactID("c@example.com"), all[0].ContactID)
	s.Equal(customer.ContactID("b@example.com"), all[2].ContactID)

	closed := customer.StatusClosed
	filtered, err := s.repo.FindAll(ctx, &closed)
	s.Require().NoError(err)
	s.Len(filtered, 1)

	counts, err := s.repo.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(map[customer.Status]int{customer.StatusActive: 2, customer.StatusClosed: 1}, counts)
}

func (s *RedisRepositorySuite) TestConcurrentDuplicates() {
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.repo.Create(ctx, newCustomer("same@example.com", 30000+i))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		s.ErrorIs(err, customer.ErrDuplicateCustomer, fmt.Sprintf("unexpected error %v", err))
	}
	s.Equal(1, successes)
}
