package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/domain"
)

var _ billing.FiscalTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	maxAttempts int
	lockTimeout time.Duration
	log         zerolog.Logger
}

// TxOption configura el runner.
type TxOption func(*TxRunner)

// WithConflictRetries reintenta la transacción completa ante ErrConflictRetryable.
func WithConflictRetries(n int) TxOption {
	return func(r *TxRunner) {
		if n >= 0 {
			r.maxAttempts = n + 1
		}
	}
}

// WithLockTimeout acota la espera de SELECT ... FOR UPDATE (55P03 al vencer).
func WithLockTimeout(d time.Duration) TxOption {
	return func(r *TxRunner) { r.lockTimeout = d }
}

// WithLogger logger para los reintentos.
func WithLogger(log zerolog.Logger) TxOption {
	return func(r *TxRunner) { r.log = log }
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts ...TxOption) *TxRunner {
	r := &TxRunner{pool: pool, maxAttempts: 3, lockTimeout: 5 * time.Second, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Repos repositorios fiscales atados al pool, para lecturas fuera de transacción.
func Repos(q Querier) billing.FiscalRepos {
	return billing.FiscalRepos{
		Documents:   NewFiscalDocumentRepository(q),
		Sequences:   NewSequenceRepository(q),
		Settlements: NewSettlementRepository(q),
		Approvals:   NewApprovalRepository(q),
	}
}

// RunFiscal inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un conflicto de concurrencia (serialización, deadlock, lock timeout, versión) reintenta fn desde cero.
func (r *TxRunner) RunFiscal(ctx context.Context, fn func(repos billing.FiscalRepos) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConflictRetryable) || ctx.Err() != nil {
			return err
		}
		r.log.Debug().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando transacción")
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos billing.FiscalRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(Repos(tx)); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapTxError(err))
	}
	return nil
}
