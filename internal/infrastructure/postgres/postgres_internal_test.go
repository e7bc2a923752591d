package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/pkg/config"
)

func TestMapTxError(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := mapTxError(fmt.Errorf("update: %w", &pgconn.PgError{Code: code, Message: "contención"}))
		assert.ErrorIs(t, err, domain.ErrConflictRetryable, code)
	}
	other := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(other), mapTxError(other))

	plain := errors.New("x")
	assert.Equal(t, plain, mapTxError(plain))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestLimitOrAll(t *testing.T) {
	assert.Nil(t, limitOrAll(0))
	assert.Nil(t, limitOrAll(-5))
	assert.Equal(t, 10, limitOrAll(10))
}

func TestRetentionRows_JSON(t *testing.T) {
	in := []entity.Retention{{Type: "IIBB", Rate: decimal.RequireFromString("2.5"), BaseAmount: decimal.NewFromInt(400), Amount: decimal.NewFromInt(10)}}
	raw, err := json.Marshal(toRetentionRows(in))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"base_amount":"400"`)

	var rows []retentionRow
	require.NoError(t, json.Unmarshal(raw, &rows))
	out := fromRetentionRows(rows)
	require.Len(t, out, 1)
	assert.True(t, out[0].Amount.Equal(in[0].Amount))
	assert.Nil(t, fromRetentionRows(nil))
}

func TestBuildPoolConfig(t *testing.T) {
	pc, err := buildPoolConfig(config.DBConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p@ss", DBName: "fact", SSLMode: "disable", MaxConns: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, "UTC", pc.ConnConfig.RuntimeParams["timezone"])
	assert.Equal(t, "facturacion-arg", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)

	pc, err = buildPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@db:5432/fact?application_name=worker"})
	require.NoError(t, err)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
	assert.Equal(t, "worker", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestFirstIPv4(t *testing.T) {
	assert.Equal(t, "10.0.0.1", firstIPv4([]net.IP{net.ParseIP("::1"), net.ParseIP("10.0.0.1")}))
	assert.Empty(t, firstIPv4([]net.IP{net.ParseIP("::1")}))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:xxxxx@db:5432/fact", redactDSN("postgres://u:secreto@db:5432/fact"))
	assert.Equal(t, "host=db", redactDSN("host=db"))
}
