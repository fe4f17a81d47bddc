package customer_test

import (
	"context"
	"customer-registry/internal/domain/customer"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracedTest(numbers ...int) (*customer.MockCustomerRepository, *customer.MockEventPublisher, *tracetest.SpanRecorder, customer.RegistryService) {
	mockRepo := new(customer.MockCustomerRepository)
	mockPub := new(customer.MockEventPublisher)
	accounts := &customer.SequenceAccountNumbers{Numbers: numbers}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	service := customer.NewRegistryService(mockRepo, mockPub, accounts, 3, testLogger, customer.WithTracerProvider(tp))
	return mockRepo, mockPub, recorder, service
}

func spanByName(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	require.Failf(t, "span not recorded", "no span named %q", name)
	return nil
}

func TestRegistryService_Tracing(t *testing.T) {
	ctx := context.Background()

	t.Run("Register records attempts", func(t *testing.T) {
		mockRepo, mockPub, recorder, service := setupTracedTest(11111, 22222)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.AccountNumber == 11111
		})).Return(customer.ErrAccountNumberTaken).Once()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		mockPub.On("PublishCustomerRegistered", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := service.Register(ctx, validInput())
		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "RegistryService.Register", span.Name())
		assert.Contains(t, span.Attributes(), attribute.Int("registry.attempts", 2))
		assert.Equal(t, codes.Unset, span.Status().Code)
	})

	t.Run("Register duplicate marks span as error", func(t *testing.T) {
		mockRepo, _, recorder, service := setupTracedTest(10000)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(customer.ErrDuplicateCustomer).Once()

		_, err := service.Register(ctx, validInput())
		require.ErrorIs(t, err, customer.ErrDuplicateCustomer)

		span := spanByName(t, recorder.Ended(), "RegistryService.Register")
		assert.Equal(t, codes.Error, span.Status().Code)
		require.NotEmpty(t, span.Events())
		assert.Equal(t, "exception", span.Events()[0].Name)
	})

	t.Run("ChangeStatus nests lookup span", func(t *testing.T) {
		mockRepo, _, recorder, service := setupTracedTest(10000)
		mockRepo.On("FindByContactID", mock.Anything, customer.ContactID("ghost@example.com")).Return(nil, customer.ErrNotFound).Once()

		_, err := service.ChangeStatus(ctx, "ghost@example.com", customer.StatusBlocked)
		require.ErrorIs(t, err, customer.ErrNotFound)

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		parent := spanByName(t, spans, "RegistryService.ChangeStatus")
		child := spanByName(t, spans, "RegistryService.GetByContactID")

		assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
		assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
		assert.Equal(t, codes.Unset, child.Status().Code)
		assert.Equal(t, codes.Error, parent.Status().Code)
	})

	t.Run("Invalid status is recorded without lookup", func(t *testing.T) {
		mockRepo, _, recorder, service := setupTracedTest(10000)

		_, err := service.ChangeStatus(ctx, "jane@example.com", customer.Status("FROZEN"))
		require.ErrorIs(t, err, customer.ErrInvalidStatus)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		mockRepo.AssertNotCalled(t, "FindByContactID", mock.Anything, mock.Anything)
	})
}
