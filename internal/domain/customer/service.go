package customer

import (
	"context"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/monitoring"
	"customer-registry/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
	tracerName            = "customer-registry/internal/domain/customer"
)

type RegisterInput struct {
	Name           string
	Age            int
	Address        string
	ContactID      string
	OpeningBalance decimal.Decimal
}

type RegistrationResult struct {
	Customer *Customer
	Message  string
}

type RegistryStats struct {
	Total           int
	ByStatus        map[Status]int
	AccountRange    AccountNumberRange
	PoolUtilization float64
}

type RegistryService interface {
	Register(ctx context.Context, in RegisterInput) (*RegistrationResult, error)
	GetByContactID(ctx context.Context, contactID string) (*Customer, error)
	GetByAccountNumber(ctx context.Context, accountNumber int) (*Customer, error)
	List(ctx context.Context, status *Status) ([]*Customer, error)
	ChangeStatus(ctx context.Context, contactID string, status Status) (*Customer, error)
	Stats(ctx context.Context) (*RegistryStats, error)
}

var _ RegistryService = (*registryService)(nil)

type registryService struct {
	repo        CustomerRepository
	pub         event.EventPublisher
	accounts    AccountNumberGenerator
	maxAttempts int
	tracer      trace.Tracer
	logger      *slog.Logger
}

// Option customizes a RegistryService built by NewRegistryService.
type Option func(*registryService)

// WithTracerProvider makes the service start its spans on tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *registryService) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func NewRegistryService(repo CustomerRepository, pub event.EventPublisher, accounts AccountNumberGenerator, maxAttempts int, logger *slog.Logger, opts ...Option) RegistryService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if accounts == nil {
		panic("account number generator cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewRegistryService, using default stderr handler")
	}

	if pub == nil {
		logger.Warn("Warning: No event publisher provided to NewRegistryService, events will not be published")
		pub = event.NoopPublisher{}
	}

	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	s := &registryService{
		repo:        repo,
		pub:         pub,
		accounts:    accounts,
		maxAttempts: maxAttempts,
		tracer:      otel.Tracer(tracerName),
		logger:      logger.With(slog.String("component", "registryService")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:     cust.CustomerID,
		Name:           cust.Name,
		Age:            cust.Age,
		Address:        cust.Address,
		ContactID:      cust.ContactID.String(),
		AccountNumber:  cust.AccountNumber,
		Status:         cust.Status.String(),
		OpeningBalance: cust.OpeningBalance.StringFixed(2),
		CreatedAt:      cust.CreatedAt,
		UpdatedAt:      cust.UpdatedAt,
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func validateRegisterInput(in RegisterInput) (*Customer, error) {
	contactID, err := NewContactID(in.ContactID)
	if err != nil {
		return nil, err
	}
	if in.Age < 0 {
		return nil, apperrors.NewValidationError("age", "age cannot be negative")
	}
	if in.OpeningBalance.IsNegative() {
		return nil, apperrors.NewValidationError("openingBalance", "opening balance cannot be negative")
	}
	return NewCustomer(strings.TrimSpace(in.Name), in.Age, strings.TrimSpace(in.Address), contactID, in.OpeningBalance), nil
}

func (s *registryService) Register(ctx context.Context, in RegisterInput) (*RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.Register")
	defer span.End()

	s.logger.InfoContext(ctx, "Attempting to register customer")

	cust, err := validateRegisterInput(in)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed", slog.Any("error", err))
		monitoring.RecordRegistration(monitoring.ResultInvalid)
		failSpan(span, err)
		return nil, err
	}
	logCtx := s.logger.With(slog.String("contactId", cust.ContactID.String()))
	logCtx.DebugContext(ctx, inputValidationPassed)

	registered := false
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			failSpan(span, ctxErr)
			return nil, ctxErr
		}

		cust.AccountNumber = s.accounts.Next()
		err = s.repo.Create(ctx, cust)
		if err == nil {
			registered = true
			span.SetAttributes(attribute.Int("registry.attempts", attempt))
			break
		}

		if errors.Is(err, ErrDuplicateCustomer) {
			logCtx.WarnContext(ctx, RejectionMessage)
			monitoring.RecordRegistration(monitoring.ResultDuplicate)
			failSpan(span, err)
			return nil, ErrDuplicateCustomer
		}
		if errors.Is(err, ErrAccountNumberTaken) {
			logCtx.DebugContext(ctx, "Generated account number already assigned, drawing again",
				slog.Int("attempt", attempt), slog.Int("accountNumber", cust.AccountNumber))
			monitoring.RecordAccountNumberCollision()
			continue
		}

		logCtx.ErrorContext(ctx, "Repository failed to create customer", slog.Any("error", err))
		monitoring.RecordRegistration(monitoring.ResultError)
		failSpan(span, err)
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}

	if !registered {
		logCtx.ErrorContext(ctx, "Could not find a free account number", slog.Int("attempts", s.maxAttempts))
		monitoring.RecordRegistration(monitoring.ResultExhausted)
		err = fmt.Errorf("%w after %d attempts", ErrAccountNumbersExhausted, s.maxAttempts)
		failSpan(span, err)
		return nil, err
	}

	message := ConfirmationMessage(cust.Name, cust.AccountNumber)
	logCtx.InfoContext(ctx, message, slog.Int("accountNumber", cust.AccountNumber), slog.Int64("customerID", cust.CustomerID))
	monitoring.RecordRegistration(monitoring.ResultSuccess)

	registeredEvent := event.NewCustomerRegisteredEvent(NewCustomerEventPayload(cust))
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registeredEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	} else {
		logCtx.DebugContext(ctx, "Successfully published customer registration event")
	}

	return &RegistrationResult{Customer: cust, Message: message}, nil
}

func (s *registryService) GetByContactID(ctx context.Context, rawContactID string) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.GetByContactID")
	defer span.End()

	contactID, err := NewContactID(rawContactID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "Calling repository FindByContactID")
	cust, err := s.repo.FindByContactID(ctx, contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		failSpan(span, err)
		return nil, fmt.Errorf("failed to get customer %s: %w", contactID, err)
	}

	return cust, nil
}

func (s *registryService) GetByAccountNumber(ctx context.Context, accountNumber int) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.GetByAccountNumber")
	defer span.End()

	bounds := s.accounts.Range()
	if !bounds.Contains(accountNumber) {
		err := apperrors.NewValidationError("accountNumber", fmt.Sprintf("account number must be within [%d, %d]", bounds.Min, bounds.Max))
		failSpan(span, err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "Calling repository FindByAccountNumber")
	cust, err := s.repo.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, slog.Int("accountNumber", accountNumber))
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer by account number", slog.Any("error", err))
		failSpan(span, err)
		return nil, fmt.Errorf("failed to get customer by account number %d: %w", accountNumber, err)
	}

	return cust, nil
}

func (s *registryService) List(ctx context.Context, status *Status) ([]*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.List")
	defer span.End()

	if status != nil && !status.IsValid() {
		err := fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
		failSpan(span, err)
		return nil, err
	}

	customers, err := s.repo.FindAll(ctx, status)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		failSpan(span, err)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.DebugContext(ctx, "Successfully listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *registryService) ChangeStatus(ctx context.Context, rawContactID string, status Status) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.ChangeStatus")
	defer span.End()

	if !status.IsValid() {
		err := fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		failSpan(span, err)
		return nil, err
	}

	cust, err := s.GetByContactID(ctx, rawContactID)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	logCtx := s.logger.With(slog.String("contactId", cust.ContactID.String()), slog.String("newStatus", status.String()))

	oldStatus := cust.Status
	if !cust.SetStatus(status) {
		logCtx.InfoContext(ctx, "Status unchanged, skipping update")
		return cust, nil
	}

	if err := s.repo.UpdateStatus(ctx, cust.ContactID, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			logCtx.ErrorContext(ctx, "Customer disappeared before status update completed")
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository failed to update status", slog.Any("error", err))
		failSpan(span, err)
		return nil, fmt.Errorf("failed to update status for customer %s: %w", cust.ContactID, err)
	}

	updated, fetchErr := s.repo.FindByContactID(ctx, cust.ContactID)
	if fetchErr != nil {
		logCtx.ErrorContext(ctx, "Updated status, but FAILED to re-fetch customer", slog.Any("error", fetchErr))
		updated = cust
	}

	changedEvent := event.NewCustomerStatusChangedEvent(oldStatus.String(), status.String(), NewCustomerEventPayload(updated))
	if pubErr := s.pub.PublishCustomerStatusChanged(ctx, changedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Status changed, but FAILED to publish status change event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully changed customer status", slog.String("oldStatus", oldStatus.String()))
	return updated, nil
}

func (s *registryService) Stats(ctx context.Context) (*RegistryStats, error) {
	ctx, span := s.tracer.Start(ctx, "RegistryService.Stats")
	defer span.End()

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error counting customers", slog.Any("error", err))
		failSpan(span, err)
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	stats := &RegistryStats{
		ByStatus:     make(map[Status]int, len(AllStatuses)),
		AccountRange: s.accounts.Range(),
	}
	for _, status := range AllStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	if size := stats.AccountRange.Size(); size > 0 {
		stats.PoolUtilization = float64(stats.Total) / float64(size)
	}

	return stats, nil
}
