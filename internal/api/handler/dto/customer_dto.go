package dto

import (
	"customer-registry/internal/domain/customer"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	Name           string           `json:"name" example:"Jane Doe"`
	Age            int              `json:"age" example:"34"`
	Address        string           `json:"address" example:"1 Main St"`
	ContactID      string           `json:"contactId" example:"jane@example.com"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty" swaggertype:"string" example:"150.00"`
}

func (r RegisterCustomerRequest) ToInput() customer.RegisterInput {
	balance := decimal.Zero
	if r.OpeningBalance != nil {
		balance = *r.OpeningBalance
	}
	return customer.RegisterInput{
		Name:           r.Name,
		Age:            r.Age,
		Address:        r.Address,
		ContactID:      r.ContactID,
		OpeningBalance: balance,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" example:"BLOCKED"`
}

type CustomerResponse struct {
	CustomerID     string    `json:"customerId"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Address        string    `json:"address"`
	ContactID      string    `json:"contactId"`
	AccountNumber  int       `json:"accountNumber"`
	Status         string    `json:"status"`
	OpeningBalance string    `json:"openingBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RegistrationResponse struct {
	CustomerResponse
	Message string `json:"message"`
}

type RegistryStatsResponse struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	AccountNumberMin int            `json:"accountNumberMin"`
	AccountNumberMax int            `json:"accountNumberMax"`
	PoolSize         int            `json:"poolSize"`
	PoolUtilization  float64        `json:"poolUtilization"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID:     strconv.FormatInt(cust.CustomerID, 10),
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

func NewRegistrationResponse(result *customer.RegistrationResult) RegistrationResponse {
	if result == nil {
		return RegistrationResponse{}
	}
	return RegistrationResponse{
		CustomerResponse: NewCustomerResponse(result.Customer),
		Message:          result.Message,
	}
}

func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, len(customers))
	for i, cust := range customers {
		resp[i] = NewCustomerResponse(cust)
	}
	return resp
}

func NewRegistryStatsResponse(stats *customer.RegistryStats) RegistryStatsResponse {
	if stats == nil {
		return RegistryStatsResponse{ByStatus: map[string]int{}}
	}
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[status.String()] = count
	}
	return RegistryStatsResponse{
		Total:            stats.Total,
		ByStatus:         byStatus,
		AccountNumberMin: stats.AccountRange.Min,
		AccountNumberMax: stats.AccountRange.Max,
		PoolSize:         stats.AccountRange.Size(),
		PoolUtilization:  stats.PoolUtilization,
	}
}
