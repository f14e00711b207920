package biz

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/tenant"
)

type AuthConfig struct {
	// SecretKey signs admin tokens. Generated at first boot when empty.
	SecretKey string        `conf:"secret_key" yaml:"secret_key" json:"secret_key"`
	TokenTTL  time.Duration `conf:"token_ttl" yaml:"token_ttl" json:"token_ttl"`
}

type AuthServiceParams struct {
	fx.In

	Config AuthConfig
}

func NewAuthService(params AuthServiceParams) (*AuthService, error) {
	cfg := params.Config
	if cfg.SecretKey == "" {
		key, err := GenerateSecretKey()
		if err != nil {
			return nil, err
		}

		cfg.SecretKey = key
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}

	return &AuthService{config: cfg}, nil
}

type AuthService struct {
	config AuthConfig
}

// GenerateSecretKey generates a random secret key for JWT.
func GenerateSecretKey() (string, error) {
	bytes := make([]byte, 32) // 256 bits

	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}

// GenerateJWTToken issues a token carrying the tenant context's identity
// and roles.
func (s *AuthService) GenerateJWTToken(tctx tenant.Context) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": tctx.TenantID(),
		"user_id":   tctx.UserID(),
		"roles":     tctx.Roles(),
		"attrs":     tctx.Attributes(),
		"exp":       time.Now().Add(s.config.TokenTTL).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// AuthenticateJWTToken validates a token and rebuilds the tenant context it
// carries. The context is immutable; nothing from the request can widen it.
func (s *AuthService) AuthenticateJWTToken(tokenString string) (tenant.Context, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		return tenant.Context{}, fmt.Errorf("%w: failed to parse jwt token: %w", ErrInvalidJWT, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return tenant.Context{}, fmt.Errorf("%w: invalid claims", ErrInvalidJWT)
	}

	tenantID, ok := claims["tenant_id"].(string)
	if !ok || tenantID == "" {
		return tenant.Context{}, fmt.Errorf("%w: missing tenant_id claim", ErrInvalidJWT)
	}

	userID, _ := claims["user_id"].(string)

	var roles []string

	if raw, ok := claims["roles"].([]any); ok {
		for _, r := range raw {
			if role, ok := r.(string); ok {
				roles = append(roles, role)
			}
		}
	}

	attrs, _ := claims["attrs"].(map[string]any)

	return tenant.NewContext(tenantID, userID, roles, attrs), nil
}
