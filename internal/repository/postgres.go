// Package repository содержит реализацию доступа к данным в PostgreSQL
// и слой устойчивости к сбоям соединения с управляемой базой.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/mmeshcher/munchify-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository предоставляет доступ к хранилищу данных в PostgreSQL.
type Repository struct {
	pool   *Pool
	logger *zap.Logger
}

// NewRepository создаёт репозиторий, проверяет доступность базы и при
// включённой автомиграции инициализирует схему.
func NewRepository(ctx context.Context, cfg PoolConfig, autoMigrate bool, logger *zap.Logger) (*Repository, error) {
	pool, err := NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &Repository{
		pool:   pool,
		logger: logger,
	}

	if autoMigrate {
		if err := r.runMigrations(pingCtx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *Repository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// withConn выполняет fn на соединении из пула. Соединение берётся лениво
// и гарантированно возвращается ровно один раз на любом пути выхода.
// Транспортный сбой помечается как ErrUnavailable и запускает
// пересоздание всего пула.
func (r *Repository) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	if err := fn(conn); err != nil {
		if IsTransportError(err) {
			r.pool.Reset()
			return fmt.Errorf("%w: %s", ErrUnavailable, err)
		}
		return err
	}

	return nil
}

// withTx выполняет fn в транзакции: откат при ошибке и панике, коммит при
// успехе. Ровно одно из commit/rollback происходит на любом пути выхода.
func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return r.withConn(ctx, func(conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}

		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback(ctx)
				panic(p)
			}
		}()

		if err := fn(tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// CreateUser создаёт нового пользователя. Хеш пароля считает вызывающая сторона.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			username, email, passwordHash,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrUserExists, username)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx,
			`SELECT id, username, email, password_hash, is_admin FROM users WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("get user by email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx,
			`SELECT id, username, email, password_hash, is_admin FROM users WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("get user by id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser обновляет имя пользователя и/или хеш пароля.
// Адрес электронной почты после регистрации не меняется.
func (r *Repository) UpdateUser(ctx context.Context, id int64, username, passwordHash *string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if username != nil {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET username = $2 WHERE id = $1`,
				id, *username,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: %s", ErrUserExists, *username)
				}
				return fmt.Errorf("update username: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrUserNotFound
			}
		}

		if passwordHash != nil {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET password_hash = $2 WHERE id = $1`,
				id, *passwordHash,
			)
			if err != nil {
				return fmt.Errorf("update password: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrUserNotFound
			}
		}

		return nil
	})
}

// DeleteUser удаляет пользователя. Его заказы удаляются каскадно
// ограничением внешнего ключа.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// CreateOrder сохраняет заказ и возвращает его идентификатор.
func (r *Repository) CreateOrder(ctx context.Context, order *model.Order) (int64, error) {
	contact, err := json.Marshal(order.ContactInfo)
	if err != nil {
		return 0, fmt.Errorf("marshal contact info: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return 0, fmt.Errorf("marshal order items: %w", err)
	}

	var id int64
	err = r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, contact_info, items, total)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			order.UserID, contact, items, order.Total,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetOrdersByUser возвращает заказы пользователя, сначала новые.
func (r *Repository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT id, user_id, contact_info, items, total, created_at
			 FROM orders
			 WHERE user_id = $1
			 ORDER BY created_at DESC`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("select orders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				o       model.Order
				contact []byte
				items   []byte
			)
			if err := rows.Scan(&o.ID, &o.UserID, &contact, &items, &o.Total, &o.CreatedAt); err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			if err := json.Unmarshal(contact, &o.ContactInfo); err != nil {
				return fmt.Errorf("unmarshal contact info: %w", err)
			}
			if err := json.Unmarshal(items, &o.Items); err != nil {
				return fmt.Errorf("unmarshal order items: %w", err)
			}
			orders = append(orders, o)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetMenuItems возвращает все позиции меню.
func (r *Repository) GetMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	var menu []model.MenuItem
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT id, name, price, COALESCE(description, ''), COALESCE(image_url, '')
			 FROM menu_items
			 ORDER BY id`,
		)
		if err != nil {
			return fmt.Errorf("select menu items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var m model.MenuItem
			if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Description, &m.ImageURL); err != nil {
				return fmt.Errorf("scan menu item: %w", err)
			}
			menu = append(menu, m)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return menu, nil
}
