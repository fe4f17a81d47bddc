package handler

import (
	"customer-registry/internal/api/handler/dto"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	service customer.RegistryService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.RegistryService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("registry service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func getContactIDFromURL(r *http.Request) (string, error) {
	contactID := chi.URLParam(r, "contactID")
	// chi matches on RawPath when the request carried escapes Path cannot
	// represent, otherwise the parameter is already decoded.
	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(contactID)
		if err != nil {
			return "", fmt.Errorf("%w: invalid contactID in URL path: %s", apperrors.ErrInvalidArgument, contactID)
		}
		contactID = decoded
	}
	if contactID == "" {
		return "", fmt.Errorf("%w: contactID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return contactID, nil
}

func getAccountNumberFromURL(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "accountNumber")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid accountNumber format in URL path: %s", apperrors.ErrInvalidArgument, raw)
	}
	return n, nil
}

func (h *CustomerHandler) logServiceError(r *http.Request, msg string, err error) {
	level := slog.LevelError
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, customer.ErrDuplicateCustomer):
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
}

// RegisterCustomer handles POST /customers
// @Summary Register a new customer
// @Description Registers a customer under a unique contact identifier and assigns a random account number.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.RegisterCustomerRequest true "Customer registration request"
// @Success 201 {object} dto.RegistrationResponse "Customer registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "Customer already exists with this email address"
// @Failure 503 {object} dto.ErrorResponse "No account number available"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received register customer request")

	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.Register(r.Context(), req.ToInput())
	if err != nil {
		h.logServiceError(r, "Service failed to register customer", err)
		respondError(w, err)
		return
	}

	resp := dto.NewRegistrationResponse(result)
	h.logger.InfoContext(r.Context(), "Customer registered successfully", slog.String("customerID", resp.CustomerID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetCustomer handles GET /customers/{contactID}
// @Summary Retrieve a customer by contact identifier
// @Tags Customers
// @Produce json
// @Param contactID path string true "Contact identifier (email)"
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid contact identifier"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{contactID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	contactID, err := getContactIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get contact ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	cust, err := h.service.GetByContactID(r.Context(), contactID)
	if err != nil {
		h.logServiceError(r, "Service failed to get customer", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// GetCustomerByAccount handles GET /accounts/{accountNumber}
// @Summary Retrieve a customer by account number
// @Tags Customers
// @Produce json
// @Param accountNumber path int true "Account number" Minimum(10000) Maximum(99999)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid account number"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts/{accountNumber} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomerByAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber, err := getAccountNumberFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get account number from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	cust, err := h.service.GetByAccountNumber(r.Context(), accountNumber)
	if err != nil {
		h.logServiceError(r, "Service failed to get customer by account number", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// ListCustomers handles GET /customers
// @Summary List customers
// @Description Lists customers in registration order, optionally filtered by status.
// @Tags Customers
// @Produce json
// @Param status query string false "Filter by status" Enums(ACTIVE, INACTIVE, BLOCKED, BANNED, COMPROMISED, ARCHIVED, CLOSED, UNKNOWN)
// @Success 200 {array} dto.CustomerResponse "List of customers"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	var filter *customer.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := customer.ParseStatus(raw)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid status filter", slog.String("status", raw))
			respondError(w, err)
			return
		}
		filter = &status
	}

	customers, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logServiceError(r, "Service failed to list customers", err)
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerListResponse(customers)
	h.logger.DebugContext(r.Context(), "Customers listed successfully", slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}

// UpdateCustomerStatus handles PUT /customers/{contactID}/status
// @Summary Change a customer's status
// @Tags Customers
// @Accept json
// @Produce json
// @Param contactID path string true "Contact identifier (email)"
// @Param request body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} dto.CustomerResponse "Updated customer"
// @Failure 400 {object} dto.ErrorResponse "Invalid status or payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{contactID}/status [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomerStatus(w http.ResponseWriter, r *http.Request) {
	contactID, err := getContactIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get contact ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	status, err := customer.ParseStatus(req.Status)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid status in request", slog.String("status", req.Status))
		respondError(w, err)
		return
	}

	cust, err := h.service.ChangeStatus(r.Context(), contactID, status)
	if err != nil {
		h.logServiceError(r, "Service failed to change customer status", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer status updated", slog.String("status", cust.Status.String()))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// GetRegistryStats handles GET /registry/stats
// @Summary Registry statistics
// @Description Customer counts per status and account number pool utilization.
// @Tags Registry
// @Produce json
// @Success 200 {object} dto.RegistryStatsResponse "Registry statistics"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /registry/stats [get]
// @Security BearerAuth
func (h *CustomerHandler) GetRegistryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logServiceError(r, "Service failed to compute registry stats", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewRegistryStatsResponse(stats))
}
