package repository

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "pg connection failure",
			err:  &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			want: true,
		},
		{
			name: "pg admin shutdown is not connection class",
			err:  &pgconn.PgError{Code: pgerrcode.AdminShutdown},
			want: false,
		},
		{
			name: "pg unique violation is a data error",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			want: false,
		},
		{
			name: "wrapped pg connection failure",
			err:  fmt.Errorf("insert order: %w", &pgconn.PgError{Code: pgerrcode.SQLClientUnableToEstablishSQLConnection}),
			want: true,
		},
		{
			name: "net op error",
			err:  &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection timed out")},
			want: true,
		},
		{
			name: "unexpected eof",
			err:  io.ErrUnexpectedEOF,
			want: true,
		},
		{
			name: "connection reset text",
			err:  errors.New("read tcp 10.0.0.5:48312: connection reset by peer"),
			want: true,
		},
		{
			name: "broken pipe text",
			err:  errors.New("write tcp 10.0.0.5:48312: broken pipe"),
			want: true,
		},
		{
			name: "ssl negotiation text",
			err:  errors.New("SSL SYSCALL error: EOF detected"),
			want: true,
		},
		{
			name: "closed pool connection",
			err:  errors.New("conn closed"),
			want: true,
		},
		{
			name: "business error",
			err:  errors.New("order total must be positive"),
			want: false,
		},
		{
			name: "sentinel user exists",
			err:  ErrUserExists,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsTransportError(tt.err)
			if got != tt.want {
				t.Fatalf("IsTransportError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}) {
		t.Fatalf("unique violation not detected")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatalf("plain error reported as unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("create user: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation})) {
		t.Fatalf("wrapped unique violation not detected")
	}
}
