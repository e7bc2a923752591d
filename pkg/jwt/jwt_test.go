package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/pkg/jwt"
)

func TestSigner_SignVerify(t *testing.T) {
	s, err := jwt.NewSigner("secreto", "facturacion-arg", time.Hour)
	require.NoError(t, err)

	tok, err := s.Sign(jwt.Identity{UserID: "u-1", CompanyID: "c-1", Role: "approver"})
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{UserID: "u-1", CompanyID: "c-1", Role: "approver"}, id)
}

func TestSigner_Rechazos(t *testing.T) {
	s, err := jwt.NewSigner("secreto", "facturacion-arg", time.Hour)
	require.NoError(t, err)
	tok, err := s.Sign(jwt.Identity{UserID: "u-1", CompanyID: "c-1", Role: "admin"})
	require.NoError(t, err)

	otroSecreto, _ := jwt.NewSigner("otro", "facturacion-arg", time.Hour)
	_, err = otroSecreto.Verify(tok)
	assert.Error(t, err, "firma con otro secreto")

	otroEmisor, _ := jwt.NewSigner("secreto", "otro-emisor", time.Hour)
	_, err = otroEmisor.Verify(tok)
	assert.Error(t, err, "emisor distinto")

	sinEmpresa, err := s.Sign(jwt.Identity{UserID: "u-1"})
	require.NoError(t, err)
	_, err = s.Verify(sinEmpresa)
	assert.ErrorIs(t, err, jwt.ErrMissingIdentity)

	_, err = s.Verify("no.es.jwt")
	assert.Error(t, err)

	_, err = jwt.NewSigner("", "x", time.Hour)
	assert.Error(t, err)
}
