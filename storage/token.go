package storage

// TokenKey is the storage key holding the bearer token sent to the generation service.
const TokenKey = "jwt_token"

// TokenStore keeps the bearer token in a KVStore. The token is read on every call.
type TokenStore struct {
	kv KVStore
}

// NewTokenStore wraps kv.
func NewTokenStore(kv KVStore) *TokenStore {
	return &TokenStore{kv: kv}
}

// Token returns the stored token, or an empty string if none is set.
// Its format is not checked.
func (ts *TokenStore) Token() (string, error) {
	token, _, err := ts.kv.Get(TokenKey)
	return token, err
}

// SetToken stores token as is.
func (ts *TokenStore) SetToken(token string) error {
	return ts.kv.Set(TokenKey, token)
}

// ClearToken removes the stored token. Requests then carry an empty token.
func (ts *TokenStore) ClearToken() error {
	return ts.kv.Remove(TokenKey)
}
