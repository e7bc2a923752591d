package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-arg/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Emite un Bearer token firmado con JWT_SECRET (desarrollo y pruebas)",
	Example: `  fiscalctl token --user u-1 --company emp-1 --role approver
  fiscalctl token --user u-1 --company emp-1 --role treasurer --ttl 15m`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		company, _ := cmd.Flags().GetString("company")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
		}

		signer, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, ttl)
		if err != nil {
			return err
		}
		tok, err := signer.Sign(jwt.Identity{UserID: user, CompanyID: company, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "ID del usuario")
	tokenCmd.Flags().String("company", "", "ID de la empresa emisora")
	tokenCmd.Flags().String("role", "operator", "admin | operator | approver | treasurer")
	tokenCmd.Flags().Duration("ttl", 0, "vigencia (por defecto JWT_EXPIRATION_MINUTES)")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(tokenCmd)
}
