package customer

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusInactive    Status = "INACTIVE"
	StatusBlocked     Status = "BLOCKED"
	StatusBanned      Status = "BANNED"
	StatusCompromised Status = "COMPROMISED"
	StatusArchived    Status = "ARCHIVED"
	StatusClosed      Status = "CLOSED"
	StatusUnknown     Status = "UNKNOWN"
)

var AllStatuses = []Status{
	StatusActive,
	StatusInactive,
	StatusBlocked,
	StatusBanned,
	StatusCompromised,
	StatusArchived,
	StatusClosed,
	StatusUnknown,
}

func ParseStatus(s string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !candidate.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return candidate, nil
}

func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
