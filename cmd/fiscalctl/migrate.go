package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-arg/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica los scripts SQL pendientes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		pool, err := postgres.NewPool(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := postgres.Migrate(cmd.Context(), pool, log.WithComponent("migrate"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d migraciones aplicadas\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
