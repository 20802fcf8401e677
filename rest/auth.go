package rest

import (
	"os"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// tokenSource mints bearer tokens for the REST leg, mirroring
// client/upbit/client.go's Token method: a JWT with a fresh nonce,
// HMAC-signed (HS256) with the configured key bytes, sent as an
// Authorization header.
type tokenSource struct {
	keyID      string
	privateKey []byte
}

// newTokenSource reads the signing key from keyPath. An empty path is
// not an error here: it yields an empty tokenSource, and every Token
// call then fails with a clear reason instead of panicking on a nil
// key.
func newTokenSource(keyID, keyPath string) (*tokenSource, error) {
	if keyPath == "" {
		return &tokenSource{keyID: keyID}, nil
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read bearer signing key %s", keyPath)
	}
	return &tokenSource{keyID: keyID, privateKey: key}, nil
}

// Token builds a signed JWT carrying key_id and a fresh nonce (no
// expiry claim), the credential the REST leg presents as
// Authorization: Bearer <token> on every call.
func (t *tokenSource) Token() (string, error) {
	if len(t.privateKey) == 0 {
		return "", errors.New("rest transport has no signing key configured")
	}

	claims := jwt.MapClaims{
		"key_id": t.keyID,
		"nonce":  uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.privateKey)
	if err != nil {
		return "", errors.Wrap(err, "sign bearer token")
	}
	return signed, nil
}
