// Package handler содержит HTTP-обработчики API сервиса заказа еды.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/munchify-system/internal/middleware"
	"github.com/mmeshcher/munchify-system/internal/model"
	"github.com/mmeshcher/munchify-system/internal/repository"
	"github.com/mmeshcher/munchify-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, email, password string) (int64, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, username, password *string) error
	DeleteUser(ctx context.Context, id int64) error
	PlaceOrder(ctx context.Context, userID int64, contact model.ContactInfo, items []model.OrderItem, total float64) error
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
	Menu(ctx context.Context) ([]model.MenuItem, error)
}

// Handler реализует HTTP-обработчики API сервиса заказа еды.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

const retryMessage = "service temporarily unavailable, please retry"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError классифицирует ошибку и пишет ответ: ошибки ввода — 4xx,
// транспортный сбой хранилища — 503 с предложением повторить запрос,
// всё остальное — 500 с подробностями только в журнале.
func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, repository.ErrUserExists):
		writeError(w, http.StatusConflict, "username or email already exists")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, repository.ErrPoolExhausted),
		errors.Is(err, repository.ErrConnectionUnavailable):
		h.logger.Warn("storage unavailable", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, retryMessage)
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.service.RegisterUser(r.Context(), req.Username, req.Email, req.Password); err != nil {
		h.respondError(w, err, "register")
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Login выполняет аутентификацию и выдаёт токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err, "login")
		return
	}

	token, err := h.authMiddleware.IssueToken(u.ID)
	if err != nil {
		h.respondError(w, err, "login")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		Username:    u.Username,
	})
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Me возвращает данные текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get current user")
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

type updateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
}

// Update меняет имя пользователя и/или пароль текущего пользователя.
// Попытка сменить почту отклоняется явно.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email != nil {
		writeError(w, http.StatusBadRequest, "email cannot be changed")
		return
	}

	if err := h.service.UpdateUser(r.Context(), userID, req.Username, req.Password); err != nil {
		h.respondError(w, err, "update user")
		return
	}

	writeMessage(w, http.StatusOK, "User updated successfully")
}

// Delete удаляет текущего пользователя вместе с его заказами.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respondError(w, err, "delete user")
		return
	}

	writeMessage(w, http.StatusOK, "User deleted successfully")
}

type createOrderRequest struct {
	ContactInfo model.ContactInfo `json:"contact_info"`
	Items       []model.OrderItem `json:"items"`
	Total       float64           `json:"total"`
}

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.PlaceOrder(r.Context(), userID, req.ContactInfo, req.Items, req.Total); err != nil {
		h.respondError(w, err, "create order")
		return
	}

	writeMessage(w, http.StatusCreated, "Order placed successfully")
}

type orderResponse struct {
	ID          int64             `json:"id"`
	Total       float64           `json:"total"`
	CreatedAt   string            `json:"created_at"`
	Items       []model.OrderItem `json:"items"`
	ContactInfo model.ContactInfo `json:"contact_info"`
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	orders, err := h.service.Orders(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get orders")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			ID:          o.ID,
			Total:       o.Total,
			CreatedAt:   o.CreatedAt.Format(time.RFC3339),
			Items:       o.Items,
			ContactInfo: o.ContactInfo,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Menu возвращает все позиции меню.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.Menu(r.Context())
	if err != nil {
		h.respondError(w, err, "get menu")
		return
	}

	if menu == nil {
		menu = []model.MenuItem{}
	}

	writeJSON(w, http.StatusOK, menu)
}
