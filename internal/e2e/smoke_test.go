package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/provider-eligibility", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pe-1","serviceCategoryId":"c1","status":"ELIGIBLE","providers":[{"id":"p1","name":"Dr. Grace"}]}`)
	}))
	t.Cleanup(server.Close)

	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home, server.URL))

	_, stderr, err := runElig(t, binaryPath, home, "auth", "set-key", "--key", "sk-test-123")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runElig(t, binaryPath, home,
		"profile", "save", "therapy",
		"--category", "c1",
		"--payer", "payer-1",
		"--state", "NY",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runElig(t, binaryPath, home, "soft", "--profile", "therapy", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, `"status": "ELIGIBLE"`)
	assert.Contains(t, stdout, "Dr. Grace")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "elig-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/elig")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build elig binary: %s", string(output))
	return binaryPath
}

func runElig(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"ELIG_API_KEY=",
		"ELIG_API_BASE_URL=",
		"ELIG_OTEL_ENABLED=false",
	)

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

func writeConfigFixture(home, baseURL string) error {
	configDir := filepath.Join(home, ".elig")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	config := fmt.Sprintf(`[api]
base_url = %q
environment = "staging"

[credentials]
backend = "file"

[log]
level = "error"
`, baseURL)

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600)
}
