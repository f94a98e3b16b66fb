package ports

import "github.com/parasol-labs/checkin/core"

// Tokenizer converts between API credentials and signed tokens.
type Tokenizer interface {
	CredentialToToken(credential *core.Credential) (string, error)
	TokenToCredential(token string) (*core.Credential, error)
}
