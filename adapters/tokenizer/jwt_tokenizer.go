package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

// AudienceAccess marks locally minted access tokens.
const AudienceAccess = "checkin:access"

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// CredentialToToken converts a Credential to a signed JWT.
func (j *JWTTokenizer) CredentialToToken(credential *core.Credential) (string, error) {
	claims := CredentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credential.Email,
			ID:        credential.ID,
			ExpiresAt: jwt.NewNumericDate(credential.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(credential.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToCredential parses and validates a JWT and returns the
// Credential it carries.
func (j *JWTTokenizer) TokenToCredential(tokenStr string) (*core.Credential, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CredentialClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceAccess))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*CredentialClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	return &core.Credential{
		ID:        claims.ID,
		Email:     claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
