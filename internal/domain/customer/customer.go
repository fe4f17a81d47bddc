package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	CustomerID     int64           `json:"customerId"`
	Name           string          `json:"name"`
	Age            int             `json:"age"`
	Address        string          `json:"address"`
	ContactID      ContactID       `json:"contactId"`
	AccountNumber  int             `json:"accountNumber"`
	Status         Status          `json:"status"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func NewCustomer(name string, age int, address string, contactID ContactID, openingBalance decimal.Decimal) *Customer {
	now := time.Now()
	return &Customer{
		Name:           name,
		Age:            age,
		Address:        address,
		ContactID:      contactID,
		Status:         StatusActive,
		OpeningBalance: openingBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetStatus reports whether the status changed.
func (c *Customer) SetStatus(status Status) bool {
	if c.Status == status {
		return false
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return true
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
