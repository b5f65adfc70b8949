package repository

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserExists возвращается при нарушении уникальности имени пользователя или почты.
	ErrUserExists = errors.New("username or email already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnavailable — транспортный сбой хранилища; запрос можно повторить,
	// пул соединений уже отправлен на пересоздание.
	ErrUnavailable = errors.New("storage temporarily unavailable")
	// ErrPoolExhausted возвращается, когда соединение не удалось получить
	// за отведённый таймаут.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrConnectionUnavailable возвращается, когда база недоступна даже
	// после пересоздания пула.
	ErrConnectionUnavailable = errors.New("database connection unavailable")
)

// IsTransportError сообщает, вызвана ли ошибка сбоем сети или шифрования,
// а не некорректными данными. Такие ошибки лечатся повтором запроса
// на свежем соединении.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Часть ошибок драйвер отдаёт только текстом.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected EOF") ||
		strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "SSL")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
