package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolMode задаёт стратегию работы с соединениями.
type PoolMode string

const (
	// PoolModePooled — обычный пул с переиспользуемыми соединениями.
	PoolModePooled PoolMode = "pooled"
	// PoolModeNone — каждое обращение получает свежее соединение,
	// которое закрывается сразу после использования. Режим для баз,
	// непредсказуемо обрывающих простаивающие соединения.
	PoolModeNone PoolMode = "none"
)

// PoolConfig задаёт параметры пула соединений.
type PoolConfig struct {
	DSN             string
	Mode            PoolMode
	MinConns        int32
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	AcquireTimeout  time.Duration
}

const (
	// Сколько раз подряд отбрасываем мёртвые соединения, прежде чем
	// вернуть ошибку вызывающему.
	livenessAttempts = 3

	// Конкурентные запросы на пересоздание пула внутри этого окна
	// схлопываются в одно пересоздание.
	resetMinInterval = time.Second

	healthCheckPeriod = time.Minute
)

// Pool владеет жизненным циклом соединений с базой данных: проверяет
// живость перед выдачей, при фатальном транспортном сбое пересоздаёт
// пул целиком и закрывает его при остановке сервиса.
type Pool struct {
	pool   *pgxpool.Pool
	cfg    PoolConfig
	logger *zap.Logger

	mu        sync.Mutex
	lastReset time.Time
	reset     func() // подменяется в тестах
}

// NewPool создаёт пул соединений по нормализованной строке подключения.
func NewPool(ctx context.Context, cfg PoolConfig, logger *zap.Logger) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	pc.MinConns = cfg.MinConns
	pc.MaxConns = cfg.MaxConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = healthCheckPeriod

	if cfg.Mode == PoolModeNone {
		// Тёплые простаивающие соединения в этом режиме не нужны.
		pc.MinConns = 0
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	p := &Pool{
		pool:   pool,
		cfg:    cfg,
		logger: logger,
	}
	p.reset = pool.Reset

	return p, nil
}

// Acquire выдаёт живое соединение в монопольное пользование. Блокируется
// не дольше AcquireTimeout; мёртвые соединения уничтожаются, и вместо них
// берётся следующее, а не возвращается ошибка.
func (p *Pool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	var lastErr error
	for range livenessAttempts {
		conn, err := p.pool.Acquire(acquireCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, ErrPoolExhausted
			}
			lastErr = err
			break
		}

		// Дешёвая проверка живости: управляемая база могла закрыть
		// соединение, пока оно простаивало в пуле.
		if err := conn.Ping(acquireCtx); err != nil {
			lastErr = err
			// Закрытое соединение пул уничтожит, а не вернёт в очередь.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
			continue
		}

		return conn, nil
	}

	if lastErr == nil {
		lastErr = acquireCtx.Err()
	}
	if IsTransportError(lastErr) {
		return nil, fmt.Errorf("%w: %s", ErrConnectionUnavailable, lastErr)
	}
	return nil, fmt.Errorf("acquire connection: %w", lastErr)
}

// Release возвращает соединение в пул. В режиме без пула соединение
// закрывается, и пул уничтожает его вместо повторного использования.
func (p *Pool) Release(conn *pgxpool.Conn) {
	if conn == nil {
		return
	}

	if p.cfg.Mode == PoolModeNone {
		_ = conn.Conn().Close(context.Background())
	}
	conn.Release()
}

// Reset целиком пересоздаёт пул после фатального транспортного сбоя.
// Управляемая база обычно убивает сразу несколько соединений, поэтому
// точечная замена одного ломавшегося соединения приводит лишь к череде
// повторных сбоев. Следующий Acquire лениво откроет новые соединения.
// Конкурентные вызовы схлопываются в одно пересоздание.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastReset) < resetMinInterval {
		return
	}
	p.lastReset = time.Now()

	if p.logger != nil {
		p.logger.Warn("resetting connection pool after transport failure")
	}
	p.reset()
}

// Ping проверяет доступность базы данных.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close закрывает пул при остановке сервиса.
func (p *Pool) Close() {
	p.pool.Close()
}
