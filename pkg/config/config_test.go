package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.AFIPEnvDev, cfg.AFIP.Environment)
	assert.Equal(t, 3, cfg.AFIP.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.AFIP.Timeout)
	assert.Equal(t, 1, cfg.Billing.DefaultApprovalsRequired)
	assert.Equal(t, "100000", cfg.Billing.MaxExchangeRate.String())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AFIP_ENVIRONMENT", "HOMO")
	t.Setenv("AFIP_CUIT", "20123456786")
	t.Setenv("AFIP_TOKEN", "tok")
	t.Setenv("AFIP_SIGN", "sig")
	t.Setenv("AFIP_RETRY_BACKOFF", "750ms")
	t.Setenv("AFIP_TIMEOUT", "10")
	t.Setenv("AFIP_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("BILLING_DEFAULT_APPROVALS_REQUIRED", "2")
	t.Setenv("BILLING_MAX_EXCHANGE_RATE", "5000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.AFIPEnvHomo, cfg.AFIP.Environment)
	assert.Equal(t, 750*time.Millisecond, cfg.AFIP.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.AFIP.Timeout)
	assert.InDelta(t, 2.5, cfg.AFIP.RequestsPerSecond, 1e-9)
	assert.Equal(t, 2, cfg.Billing.DefaultApprovalsRequired)
	assert.Equal(t, "5000", cfg.Billing.MaxExchangeRate.String())
}

func TestLoad_Invalida(t *testing.T) {
	cases := map[string]map[string]string{
		"homologación sin credenciales": {"AFIP_ENVIRONMENT": "homo"},
		"entorno desconocido":           {"AFIP_ENVIRONMENT": "staging"},
		"aprobaciones negativas":        {"BILLING_DEFAULT_APPROVALS_REQUIRED": "-1"},
		"cotización máxima no numérica": {"BILLING_MAX_EXCHANGE_RATE": "mucho"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "fact", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/fact?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
