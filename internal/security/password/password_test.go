package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parámetros baratos para que los tests no tarden
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "s3cret-Pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, Verify("s3cret-Pass", phc))
	assert.False(t, Verify("s3cret-pass", phc))
	assert.False(t, Verify("", phc))

	other, err := Hash(fast, "s3cret-Pass")
	require.NoError(t, err)
	assert.NotEqual(t, phc, other, "salt must differ")
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := Hash(fast, "")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	} {
		assert.False(t, Verify("x", phc), phc)
	}
}

func TestPolicy(t *testing.T) {
	assert.Empty(t, Strict.Check("Correct-Horse-9"))
	assert.ElementsMatch(t, []string{"too_short", "missing_upper", "missing_digit"}, Strict.Check("admin"))
	assert.Contains(t, Policy{RequireSymbol: true}.Check("abc"), "missing_symbol")
}
