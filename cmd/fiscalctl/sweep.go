package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/bootstrap"
)

var reconcileNotesCmd = &cobra.Command{
	Use:   "reconcile-notes",
	Short: "Alinea el estado de las NC/ND con el de su comprobante original",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSweep(cmd, func(c *bootstrap.Container, limit int) (dto.SweepResult, error) {
			return c.Sweeps.ReconcileNotes(cmd.Context(), limit)
		})
	},
}

var sweepOverdueCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Marca como vencidos los comprobantes impagos con vencimiento anterior a --as-of",
	Example: `  fiscalctl sweep-overdue
  fiscalctl sweep-overdue --as-of 2026-10-01 --limit 100`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asOf := time.Now()
		if s, _ := cmd.Flags().GetString("as-of"); s != "" {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				return fmt.Errorf("--as-of inválido, usar AAAA-MM-DD: %w", err)
			}
			asOf = t
		}
		return runSweep(cmd, func(c *bootstrap.Container, limit int) (dto.SweepResult, error) {
			return c.Sweeps.SweepOverdue(cmd.Context(), asOf, limit)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{reconcileNotesCmd, sweepOverdueCmd} {
		c.Flags().Int("limit", 0, "máximo de comprobantes a procesar (0 = BILLING_SWEEP_BATCH_SIZE)")
		rootCmd.AddCommand(c)
	}
	sweepOverdueCmd.Flags().String("as-of", "", "fecha de corte AAAA-MM-DD (por defecto hoy)")
}

func runSweep(cmd *cobra.Command, fn func(c *bootstrap.Container, limit int) (dto.SweepResult, error)) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Billing.SweepBatchSize
	}
	container, err := bootstrap.New(cmd.Context(), cfg, log.Zerolog())
	if err != nil {
		return err
	}
	defer container.Close(5 * time.Second)

	res, err := fn(container, limit)
	if err != nil {
		return err
	}
	log.Info().Str("command", cmd.Name()).Int("scanned", res.Scanned).Int("updated", res.Updated).Int("failed", res.Failed).Msg("barrido finalizado")
	return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
}
