package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand executes a cobra command and returns its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()

	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type testEnv struct {
	dir        string
	configPath string
	statePath  string
}

// setupTestEnv writes a config and keyword file into a temp dir.
func setupTestEnv(t *testing.T, feedURL, keywords string) testEnv {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	env := testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		statePath:  filepath.Join(dir, "record.json"),
	}

	keywordsPath := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(keywordsPath, []byte(keywords), 0644))

	configContent := fmt.Sprintf(`
keywords_file: %s
log_file: %s
metrics_port: 0
feed:
  url: %s
  retries: 0
store:
  type: file
  path: %s
`, keywordsPath, filepath.Join(dir, "cve_reporter.log"), feedURL, env.statePath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(configContent), 0644))

	return env
}

func TestValidateCmd(t *testing.T) {
	env := setupTestEnv(t, "https://cve.circl.lu/api/query", "DESCRIPTION_KEYWORDS_I:\n  - openssl\n  - sql injection\n")

	output, err := executeCommand(rootCmd, "--config", env.configPath, "validate")
	require.NoError(t, err)
	assert.Contains(t, output, "2 keywords")
	assert.Contains(t, output, "Configuration OK")
}

func TestValidateCmd_KeywordsFlag(t *testing.T) {
	env := setupTestEnv(t, "https://cve.circl.lu/api/query", "ALL_VALID: false\n")

	other := filepath.Join(env.dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("ALL_VALID: true\n"), 0644))

	output, err := executeCommand(rootCmd, "--config", env.configPath, "--keywords", other, "validate")
	require.NoError(t, err)
	assert.Contains(t, output, "accept all: true")
}

func TestValidateCmd_InvalidKeyword(t *testing.T) {
	env := setupTestEnv(t, "https://cve.circl.lu/api/query", "PRODUCT_KEYWORDS:\n  - \"c++\"\n")

	_, err := executeCommand(rootCmd, "--config", env.configPath, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCT_KEYWORDS")
}

func circlServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunOnce(t *testing.T) {
	published := time.Now().UTC().Add(-time.Hour).Truncate(time.Second).Format("2006-01-02T15:04:05")
	body := fmt.Sprintf(`{"results":[{"id":"CVE-2024-0001","Published":%q,"last-modified":%q,
		"summary":"Heap overflow in OpenSSL","references":["https://example.com/1"],
		"vulnerable_configuration":["cpe:2.3:a:openssl:openssl"],"cvss":7.5}]}`, published, published)
	server := circlServer(t, http.StatusOK, body)

	env := setupTestEnv(t, server.URL, "DESCRIPTION_KEYWORDS_I:\n  - openssl\n")

	output, err := executeCommand(rootCmd, "--config", env.configPath, "--once")
	require.NoError(t, err)
	assert.Contains(t, output, "1 new, 0 modified")

	data, err := os.ReadFile(env.statePath)
	require.NoError(t, err)

	var state map[string]string
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, published, state["LAST_NEW_CVE"])
	assert.Equal(t, published, state["LAST_MODIFIED_CVE"])
}

func TestRunOnce_FetchFailure(t *testing.T) {
	server := circlServer(t, http.StatusBadGateway, "bad gateway")
	env := setupTestEnv(t, server.URL, "DESCRIPTION_KEYWORDS_I:\n  - openssl\n")

	_, err := executeCommand(rootCmd, "--config", env.configPath, "--once")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "502"), err.Error())

	_, statErr := os.Stat(env.statePath)
	assert.True(t, os.IsNotExist(statErr), "watermark is not written when the cycle aborts")
}

func TestRunService_InvalidConfig(t *testing.T) {
	env := setupTestEnv(t, "https://cve.circl.lu/api/query", "ALL_VALID: true\n")
	t.Setenv("CVEREPORTER_FEED_LIMIT", "0")

	_, err := executeCommand(rootCmd, "--config", env.configPath, "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.limit")
}
