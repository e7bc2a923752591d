package billing

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
)

// SweepUseCase barridos batch: alineación de NC/ND y vencimientos.
// Cada comprobante se procesa en su propia transacción; una falla no aborta el resto.
type SweepUseCase struct {
	txRunner FiscalTxRunner
	repos    FiscalRepos
	status   *StatusUseCase
	workers  int
	log      zerolog.Logger
	now      func() time.Time
}

// NewSweepUseCase construye el caso de uso. workers <= 0 usa 4.
func NewSweepUseCase(txRunner FiscalTxRunner, repos FiscalRepos, status *StatusUseCase, workers int, log zerolog.Logger) *SweepUseCase {
	if workers <= 0 {
		workers = 4
	}
	return &SweepUseCase{
		txRunner: txRunner,
		repos:    repos,
		status:   status,
		workers:  workers,
		log:      log.With().Str("component", "sweeps").Logger(),
		now:      time.Now,
	}
}

// ReconcileNotes copia los estados del original en las NC/ND que se hayan desalineado.
// Red de seguridad: la alineación principal ocurre al escribir.
func (uc *SweepUseCase) ReconcileNotes(ctx context.Context, limit int) (dto.SweepResult, error) {
	parents, err := uc.repos.Documents.ListParentsWithDriftedNotes(ctx, limit)
	if err != nil {
		return dto.SweepResult{}, err
	}
	var updated, failed atomic.Int64
	err = uc.forEach(ctx, parents, func(ctx context.Context, id string) error {
		return uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
			parent, err := repos.Documents.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrNotFound
			}
			n, err := propagateStatusToNotes(ctx, repos, parent, uc.now())
			updated.Add(int64(n))
			return err
		})
	}, &failed)
	res := dto.SweepResult{Scanned: len(parents), Updated: int(updated.Load()), Failed: int(failed.Load())}
	uc.log.Info().Int("parents", res.Scanned).Int("notes_updated", res.Updated).Int("failed", res.Failed).Msg("reconciliación de NC/ND")
	return res, err
}

// SweepOverdue pasa a overdue los comprobantes con saldo cuyo vencimiento es anterior a asOf.
func (uc *SweepUseCase) SweepOverdue(ctx context.Context, asOf time.Time, limit int) (dto.SweepResult, error) {
	ids, err := uc.repos.Documents.ListOverdueCandidates(ctx, asOf, limit)
	if err != nil {
		return dto.SweepResult{}, err
	}
	var updated, failed atomic.Int64
	err = uc.forEach(ctx, ids, func(ctx context.Context, id string) error {
		if _, err := uc.status.MarkOverdue(ctx, "", id, asOf); err != nil {
			return err
		}
		updated.Add(1)
		return nil
	}, &failed)
	res := dto.SweepResult{Scanned: len(ids), Updated: int(updated.Load()), Failed: int(failed.Load())}
	uc.log.Info().Time("as_of", asOf).Int("scanned", res.Scanned).Int("updated", res.Updated).Int("failed", res.Failed).Msg("barrido de vencidos")
	return res, err
}

// forEach procesa ids con hasta uc.workers goroutines. Los errores por comprobante se cuentan y
// se loguean; solo la cancelación del contexto corta el barrido.
func (uc *SweepUseCase) forEach(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error, failed *atomic.Int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := fn(gctx, id); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				uc.log.Warn().Err(err).Str("document_id", id).Msg("barrido: comprobante omitido")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
