// Package bootstrap arma el grafo de dependencias compartido por la API y la CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	infraafip "github.com/jhoicas/facturacion-arg/internal/infrastructure/afip"
	"github.com/jhoicas/facturacion-arg/internal/infrastructure/events"
	"github.com/jhoicas/facturacion-arg/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-arg/pkg/config"
)

// Container casos de uso listos para usar más los recursos que hay que cerrar.
type Container struct {
	Pool        *pgxpool.Pool
	Documents   *billing.DocumentUseCase
	Approvals   *billing.ApprovalUseCase
	Status      *billing.StatusUseCase
	Settlements *billing.SettlementUseCase
	Sweeps      *billing.SweepUseCase
	Authorizer  *billing.AuthorizationOrchestrator

	publisher *events.LogPublisher
}

// New conecta a PostgreSQL y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	port, err := AuthorizationPort(cfg.AFIP, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	txRunner := postgres.NewTxRunner(pool, postgres.WithLogger(log))
	repos := postgres.Repos(pool)
	publisher := events.NewLogPublisher(log.With().Str("component", "events").Logger(), 0)

	status := billing.NewStatusUseCase(txRunner, publisher, log)
	return &Container{
		Pool: pool,
		Documents: billing.NewDocumentUseCase(txRunner, repos, publisher, billing.Config{
			DefaultApprovalsRequired: cfg.Billing.DefaultApprovalsRequired,
			MaxExchangeRate:          cfg.Billing.MaxExchangeRate,
		}, log),
		Approvals:   billing.NewApprovalUseCase(txRunner, publisher, log),
		Status:      status,
		Settlements: billing.NewSettlementUseCase(txRunner, repos, publisher, log),
		Sweeps:      billing.NewSweepUseCase(txRunner, repos, status, cfg.Billing.ReconcileWorkers, log),
		Authorizer: billing.NewAuthorizationOrchestrator(txRunner, repos, port, publisher, billing.AuthorizationConfig{
			MaxRetries:        cfg.AFIP.MaxRetries,
			RetryBackoff:      cfg.AFIP.RetryBackoff,
			RequestsPerSecond: cfg.AFIP.RequestsPerSecond,
			Timeout:           cfg.AFIP.Timeout,
		}, log),
		publisher: publisher,
	}, nil
}

// AuthorizationPort elige el autorizador: simulado en dev, WSFEv1 en homologación y producción.
func AuthorizationPort(cfg config.AFIPConfig, log zerolog.Logger) (billing.AuthorizationPort, error) {
	l := log.With().Str("component", "afip").Str("afip_env", cfg.Environment).Logger()
	if cfg.Environment == config.AFIPEnvDev || cfg.Environment == "" {
		return infraafip.NewDevAuthorizer(l), nil
	}
	c, err := infraafip.NewWSFEClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("cliente WSFE: %w", err)
	}
	return c, nil
}

// Close drena los eventos pendientes y cierra el pool.
func (c *Container) Close(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := c.publisher.Close(ctx)
	c.Pool.Close()
	return err
}
