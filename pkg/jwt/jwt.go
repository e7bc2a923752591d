// Package jwt firma y verifica los Bearer tokens de la API (HS256).
// El alta de usuarios y el login quedan fuera de este servicio: el token llega emitido por el IdP
// o por `fiscalctl token` en desarrollo.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity quién actúa: usuario, empresa emisora y rol para RBAC.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string // "admin" | "approver" | "treasurer" | "operator"
}

// Claims claims registrados más la identidad.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

var ErrMissingIdentity = errors.New("jwt: el token no identifica usuario y empresa")

// Signer firma y verifica tokens con un secreto compartido.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSigner issuer vacío no valida el emisor al verificar.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Sign emite un token para la identidad.
func (s *Signer) Sign(id Identity) (string, error) {
	return s.signAt(id, time.Now())
}

func (s *Signer) signAt(id Identity, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:    id.UserID,
		CompanyID: id.CompanyID,
		Role:      id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify valida firma, vencimiento y emisor. El rol puede venir vacío: lo decide RequireRole.
func (s *Signer) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return Identity{}, err
	}
	if claims.UserID == "" || claims.CompanyID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return Identity{UserID: claims.UserID, CompanyID: claims.CompanyID, Role: claims.Role}, nil
}
