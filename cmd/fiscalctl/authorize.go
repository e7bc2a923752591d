package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-arg/internal/bootstrap"
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize <document-id>",
	Short: "Solicita el CAE de un comprobante aprobado",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		companyID, _ := cmd.Flags().GetString("company")
		container, err := bootstrap.New(cmd.Context(), cfg, log.Zerolog())
		if err != nil {
			return err
		}
		defer container.Close(5 * time.Second)

		res, err := container.Authorizer.RequestAuthorization(cmd.Context(), companyID, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	authorizeCmd.Flags().String("company", "", "empresa emisora (vacío = sin verificar tenant)")
	rootCmd.AddCommand(authorizeCmd)
}
