package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

func runKeys(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFilesystemLifecycle(t *testing.T) {
	dir := t.TempDir()
	fsArgs := func(args ...string) []string {
		return append([]string{"--backend", "filesystem", "--dir", dir}, args...)
	}

	out, err := runKeys(t, fsArgs("init", "--kid", "v1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "kid=v1 active=true")
	assert.FileExists(t, filepath.Join(dir, "v1_private.pem"))

	_, err = runKeys(t, fsArgs("init", "--kid", "v1")...)
	require.ErrorIs(t, err, jwtx.ErrKIDExists)

	out, err = runKeys(t, fsArgs("rotate", "--kid", "v2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "previous active kid=v1")
	assert.Contains(t, out, "kid=v2 active=true")

	out, err = runKeys(t, fsArgs("list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "v2")

	out, err = runKeys(t, fsArgs("export", "--kid", "v2")...)
	require.NoError(t, err)
	vars, err := godotenv.Unmarshal(out)
	require.NoError(t, err)
	assert.Contains(t, vars, jwtx.EnvVarName("JWT_KEY", "v2", "PRIVATE"))
	assert.Contains(t, vars, jwtx.EnvVarName("JWT_KEY", "v2", "PUBLIC"))

	out, err = runKeys(t, fsArgs("retire", "v1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "active=v2")
	assert.NoFileExists(t, filepath.Join(dir, "v1_private.pem"))

	out, err = runKeys(t, fsArgs("jwks")...)
	require.NoError(t, err)
	var doc jwtx.JWKS
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Keys, 2)

	_, err = runKeys(t, fsArgs("retire", "nope")...)
	assert.ErrorIs(t, err, jwtx.ErrUnknownKey)
}

func TestEnvironmentInitWritesEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("EXISTING=1\n"), 0o600))

	out, err := runKeys(t, "--backend", "environment", "--prefix", "CLITEST_KEY",
		"init", "--kid", "v1", "--write-env", envPath)
	require.NoError(t, err)
	assert.Contains(t, out, "written to")

	vars, err := godotenv.Read(envPath)
	require.NoError(t, err)
	assert.Equal(t, "1", vars["EXISTING"])
	priv := jwtx.EnvVarName("CLITEST_KEY", "v1", "PRIVATE")
	pub := jwtx.EnvVarName("CLITEST_KEY", "v1", "PUBLIC")
	require.NotEmpty(t, vars[priv])
	require.NotEmpty(t, vars[pub])
	t.Cleanup(func() {
		for k := range vars {
			_ = os.Unsetenv(k)
		}
	})

	out, err = runKeys(t, "--backend", "environment", "--prefix", "CLITEST_KEY", "--env-file", envPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "environment")
}

func TestEnvironmentRotatePrintsVariables(t *testing.T) {
	out, err := runKeys(t, "--backend", "environment", "--prefix", "CLITEST_PRINT", "rotate", "--kid", "v7")
	require.NoError(t, err)
	assert.Contains(t, out, "export these variables")
	assert.Contains(t, out, jwtx.EnvVarName("CLITEST_PRINT", "v7", "PRIVATE"))
}

func TestMergeEnvFileCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.env")
	require.NoError(t, mergeEnvFile(path, map[string]string{"A": "x"}))
	vars, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "x"}, vars)
}
