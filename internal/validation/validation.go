// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"unicode/utf8"
)

// MinPasswordLen — минимально допустимая длина пароля в символах.
const MinPasswordLen = 6

// IsValidEmail проверяет синтаксическую корректность адреса электронной почты.
func IsValidEmail(address string) bool {
	if address == "" {
		return false
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}

	// ParseAddress принимает форму "Имя <адрес>", нам нужен только голый адрес.
	return parsed.Address == address
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLen
}
