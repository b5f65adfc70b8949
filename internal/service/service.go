// Package service реализует бизнес-логику сервиса заказа еды.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/munchify-system/internal/mailer"
	"github.com/mmeshcher/munchify-system/internal/model"
	"github.com/mmeshcher/munchify-system/internal/repository"
	"github.com/mmeshcher/munchify-system/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре почта/пароль.
// Какое именно поле не совпало, намеренно не раскрывается.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError описывает ошибку пользовательского ввода.
// Текст безопасен для показа вызывающей стороне.
type ValidationError struct {
	msg string
}

// NewValidationError создаёт ошибку валидации с указанным сообщением.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, username, passwordHash *string) error
	DeleteUser(ctx context.Context, id int64) error
	CreateOrder(ctx context.Context, order *model.Order) (int64, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetMenuItems(ctx context.Context) ([]model.MenuItem, error)
}

const mailTimeout = 10 * time.Second

// Service содержит бизнес-логику сервиса заказа еды.
type Service struct {
	repo   Repository
	sender mailer.Sender
	logger *zap.Logger
}

// NewService создаёт сервис с указанным репозиторием и отправителем писем.
func NewService(repo Repository, sender mailer.Sender, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		logger: logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (int64, error) {
	if username == "" || email == "" || password == "" {
		return 0, NewValidationError("username, email and password are required")
	}
	if !validation.IsValidEmail(email) {
		return 0, NewValidationError("invalid email address")
	}
	if !validation.IsValidPassword(password) {
		return 0, NewValidationError(fmt.Sprintf("password must be at least %d characters long", validation.MinPasswordLen))
	}

	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, username, email, hash)
}

// AuthenticateUser проверяет пару почта/пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !checkPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateUser меняет имя пользователя и/или пароль. Почта после
// регистрации не меняется, этот запрет действует на уровне обработчика.
func (s *Service) UpdateUser(ctx context.Context, id int64, username, password *string) error {
	if username == nil && password == nil {
		return NewValidationError("nothing to update")
	}

	if username != nil && *username == "" {
		return NewValidationError("username cannot be empty")
	}

	var passwordHash *string
	if password != nil && strings.TrimSpace(*password) != "" {
		if !validation.IsValidPassword(*password) {
			return NewValidationError(fmt.Sprintf("password must be at least %d characters long", validation.MinPasswordLen))
		}
		hash, err := hashPassword(*password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		passwordHash = &hash
	}

	if username == nil && passwordHash == nil {
		return NewValidationError("nothing to update")
	}

	return s.repo.UpdateUser(ctx, id, username, passwordHash)
}

// DeleteUser удаляет пользователя вместе с его заказами.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// PlaceOrder сохраняет заказ и после коммита отправляет письмо-подтверждение.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, contact model.ContactInfo, items []model.OrderItem, total float64) error {
	if len(items) == 0 || total <= 0 {
		return NewValidationError("invalid order: cart is empty or total is zero")
	}

	order := &model.Order{
		UserID:      userID,
		ContactInfo: contact,
		Items:       items,
		Total:       total,
	}

	id, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return err
	}

	// Письмо уходит только после коммита: сбой доставки не должен
	// откатывать уже сохранённый заказ.
	if contact.Email != "" {
		go s.sendReceipt(id, contact, items, total)
	}

	return nil
}

func (s *Service) sendReceipt(orderID int64, contact model.ContactInfo, items []model.OrderItem, total float64) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()

	body := mailer.BuildReceipt(contact.FirstName, items, total)
	if err := s.sender.Send(ctx, contact.Email, mailer.ReceiptSubject, body); err != nil {
		s.logger.Error("send order receipt",
			zap.Int64("orderID", orderID),
			zap.Error(err),
		)
	}
}

// Orders возвращает заказы пользователя, сначала новые.
func (s *Service) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// Menu возвращает все позиции меню.
func (s *Service) Menu(ctx context.Context) ([]model.MenuItem, error) {
	return s.repo.GetMenuItems(ctx)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
