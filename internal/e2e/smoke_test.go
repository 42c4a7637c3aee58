package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeAccountsFixture(home))

	stdout, stderr, err := runMLR(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, stdout)

	_, stderr, err = runMLR(t, binaryPath, home, "account", "shipping-mode", "--nickname", "LOJA_A", "--mode", "me1")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runMLR(t, binaryPath, home, "account", "list", "--json")
	require.NoError(t, err, "stderr: %s", stderr)

	var rows []struct {
		Nickname     string `json:"nickname"`
		SellerID     string `json:"seller_id"`
		ShippingMode string `json:"shipping_mode"`
		TokenValid   bool   `json:"token_valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "LOJA_A", rows[0].Nickname)
	assert.Equal(t, "987654", rows[0].SellerID)
	assert.Equal(t, "me1", rows[0].ShippingMode)
	assert.True(t, rows[0].TokenValid)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "mlr-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/mlr")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build mlr binary: %s", string(output))
	return binaryPath
}

func runMLR(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home, "MLR_STORE_BACKEND=toml")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeAccountsFixture(home string) error {
	configDir := filepath.Join(home, ".mlr")
	secretDir := filepath.Join(configDir, "secrets", "meli", "LOJA_A")
	if err := os.MkdirAll(secretDir, 0o700); err != nil {
		return err
	}

	accounts := `version = 1

[[accounts]]
nickname = "LOJA_A"
seller_id = "987654"
shipping_mode = "me2"
expires_at = "` + time.Now().Add(4*time.Hour).UTC().Format(time.RFC3339) + `"
secret_ref = "meli://LOJA_A/oauth_tokens"
`
	if err := os.WriteFile(filepath.Join(configDir, "accounts.toml"), []byte(accounts), 0o600); err != nil {
		return err
	}

	tokens := `{"access_token":"APP_USR-smoke","refresh_token":"TG-smoke"}`
	return os.WriteFile(filepath.Join(secretDir, "oauth_tokens"), []byte(tokens), 0o600)
}
