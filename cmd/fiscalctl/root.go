package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-arg/pkg/config"
	"github.com/jhoicas/facturacion-arg/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "fiscalctl",
	Short:         "Herramientas operativas de facturación fiscal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "nivel de log (por defecto LOG_LEVEL)")
}

// setup carga configuración y logger comunes a todos los subcomandos.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.Log.Level
	}
	return cfg, logger.New(logger.Config{Env: cfg.App.Env, Level: level, Service: "fiscalctl", Out: cmd.ErrOrStderr()}), nil
}
