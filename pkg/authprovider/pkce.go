package authprovider

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const pkceUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GeneratePKCE returns a 64-character code_verifier (inside the 43-128
// range of spec.md §8's boundary: code_verifier length in [43,128], characters drawn from
// the RFC 3986 unreserved set) and its S256 code_challenge.
func GeneratePKCE() (verifier, challenge string, err error) {
	const verifierLen = 64
	buf := make([]byte, verifierLen)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	v := make([]byte, verifierLen)
	for i, b := range buf {
		v[i] = pkceUnreserved[int(b)%len(pkceUnreserved)]
	}
	verifier = string(v)

	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}
