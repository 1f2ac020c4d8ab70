// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evxeen/shop-backend/internal/model"
)

// Номер телефона: необязательный плюс и не менее десяти символов из цифр,
// пробелов, дефисов и скобок.
var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)

const (
	minCustomerNameLen = 2
	minAddressLen      = 10
)

// IsValidPhone проверяет номер телефона по свободному международному шаблону.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateOrderRequest проверяет поля запроса на создание заказа и возвращает
// список найденных проблем. Пустой список означает, что запрос корректен.
func ValidateOrderRequest(customerName, customerPhone, address string, items []model.NewOrderItem) []string {
	var problems []string

	if len(strings.TrimSpace(customerName)) < minCustomerNameLen {
		problems = append(problems, "customerName is required and must be at least 2 characters long")
	}

	if !IsValidPhone(customerPhone) {
		problems = append(problems, "valid customerPhone is required")
	}

	if len(strings.TrimSpace(address)) < minAddressLen {
		problems = append(problems, "address is required and must be at least 10 characters long")
	}

	if len(items) == 0 {
		problems = append(problems, "items array is required and must not be empty")
		return problems
	}

	for i, item := range items {
		if item.ProductID <= 0 {
			problems = append(problems, fmt.Sprintf("item %d: valid productId is required", i+1))
		}
		if item.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
	}

	return problems
}
