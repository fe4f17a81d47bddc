package customer

import "fmt"

const RejectionMessage = "Customer already exists with this email address"

func ConfirmationMessage(name string, accountNumber int) string {
	return fmt.Sprintf("Mr/Ms %s! You are now a customer of this bank. Your account number is: %d", name, accountNumber)
}
