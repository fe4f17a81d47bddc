package customer

import (
	"context"
	"customer-registry/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

var _ CustomerRepository = (*MockCustomerRepository)(nil)

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByContactID(ctx context.Context, contactID ContactID) (*Customer, error) {
	ret := _m.Called(ctx, contactID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, ContactID) *Customer); ok {
		r0 = rf(ctx, contactID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ContactID) error); ok {
		r1 = rf(ctx, contactID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) FindByAccountNumber(ctx context.Context, accountNumber int) (*Customer, error) {
	ret := _m.Called(ctx, accountNumber)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context, status *Status) ([]*Customer, error) {
	ret := _m.Called(ctx, status)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) UpdateStatus(ctx context.Context, contactID ContactID, status Status) error {
	ret := _m.Called(ctx, contactID, status)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ret := _m.Called(ctx)

	var r0 map[Status]int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[Status]int)
	}

	return r0, ret.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ event.EventPublisher = (*MockEventPublisher)(nil)

func (_m *MockEventPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

func (_m *MockEventPublisher) PublishCustomerStatusChanged(ctx context.Context, evt event.CustomerStatusChangedEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

// SequenceAccountNumbers replays a fixed list of numbers, repeating the last.
type SequenceAccountNumbers struct {
	Numbers []int
	Bounds  AccountNumberRange
	calls   int
}

func (g *SequenceAccountNumbers) Next() int {
	idx := g.calls
	if idx >= len(g.Numbers) {
		idx = len(g.Numbers) - 1
	}
	g.calls++
	return g.Numbers[idx]
}

func (g *SequenceAccountNumbers) Range() AccountNumberRange {
	if g.Bounds == (AccountNumberRange{}) {
		return DefaultAccountNumberRange()
	}
	return g.Bounds
}

func (g *SequenceAccountNumbers) Calls() int {
	return g.calls
}
