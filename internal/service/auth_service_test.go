package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaylab/internal/config"
	"assaylab/internal/domain"
	"assaylab/internal/service"
)

var jwtCfg = config.JWTConfig{Secret: "test-secret", Issuer: "lab-idp"}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims *service.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() *service.Claims {
	return &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "lab-idp",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "chemist@lab.test",
		Role:  domain.RoleLab,
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	svc := service.NewAuthService(jwtCfg)
	token := signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), validClaims())

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, domain.RoleLab, claims.Role)
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	svc := service.NewAuthService(jwtCfg)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims())},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), expired)},
		{"wrong issuer", signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), wrongIssuer)},
		{"no subject", signToken(t, jwt.SigningMethodHS256, []byte("test-secret"), noSubject)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}
