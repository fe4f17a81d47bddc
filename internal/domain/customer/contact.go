package customer

import (
	"customer-registry/internal/pkg/apperrors"
	"strings"
)

// ContactID is the uniqueness key of a customer, usually an email address.
// Values built with NewContactID are already normalized, so == can be used on
// them directly.
type ContactID string

func NewContactID(raw string) (ContactID, error) {
	normalized := normalizeContactID(raw)
	if normalized == "" {
		return "", apperrors.NewValidationError("contactId", "contact identifier cannot be empty")
	}
	return ContactID(normalized), nil
}

func normalizeContactID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Key returns the normalized form used by repositories. Two identifiers
// name the same customer exactly when their keys match: surrounding
// whitespace is ignored and comparison is case-insensitive.
func (c ContactID) Key() string {
	return normalizeContactID(string(c))
}

func (c ContactID) String() string {
	return string(c)
}
