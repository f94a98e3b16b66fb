package tokenizer

import "github.com/golang-jwt/jwt/v5"

// CredentialClaims are the claims of a locally minted access token. The
// email the provider authenticated is the subject.
type CredentialClaims struct {
	jwt.RegisteredClaims
}
