package authprovider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCELengthAndCharset(t *testing.T) {
	verifier, challenge, err := GeneratePKCE()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(verifier), 43)
	assert.LessOrEqual(t, len(verifier), 128)
	for _, c := range verifier {
		assert.True(t, strings.ContainsRune(pkceUnreserved, c), "unexpected character %q in verifier", c)
	}
	assert.NotEmpty(t, challenge)
	assert.NotEqual(t, verifier, challenge)
}

func TestGeneratePKCEIsRandomized(t *testing.T) {
	v1, _, err := GeneratePKCE()
	require.NoError(t, err)
	v2, _, err := GeneratePKCE()
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}
