// Package model содержит доменные сущности сервиса заказа еды.
package model

import "time"

// User представляет зарегистрированного пользователя сервиса.
// Пароль хранится только в виде одностороннего хеша.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// MenuItem описывает позицию меню. Справочные данные, меняются редко.
type MenuItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// ContactInfo содержит контактные данные получателя заказа.
type ContactInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
}

// OrderItem описывает одну позицию оформленного заказа.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order описывает оформленный заказ. После создания заказ не изменяется.
type Order struct {
	ID          int64
	UserID      int64
	ContactInfo ContactInfo
	Items       []OrderItem
	Total       float64
	CreatedAt   time.Time
}
