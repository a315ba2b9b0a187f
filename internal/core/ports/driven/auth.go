package driven

import "github.com/custodia-labs/docspace/internal/core/domain"

// AuthAdapter handles bearer token cryptographic operations.
// Token issuance lives outside this service; GenerateToken exists for tooling and tests.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
