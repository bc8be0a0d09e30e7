package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{
		"init", "reset", "status", "scrape", "enrich-emails", "enrich-details", "test-email",
		"run-campaign", "send-test-email", "test-email-config", "export-csv", "auto",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leadgen-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestInitCommand_Flags(t *testing.T) {
	flag := initCmd.Flags().Lookup("seed")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)

	flag = resetCmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestScrapeCommand_Flags(t *testing.T) {
	for _, c := range []string{"limit", "max-queries"} {
		assert.NotNil(t, scrapeCmd.Flags().Lookup(c), "scrape should have --%s", c)
		assert.NotNil(t, autoCmd.Flags().Lookup(c), "auto should have --%s", c)
	}
}

func TestEnrichCommand_Flags(t *testing.T) {
	assert.NotNil(t, enrichEmailsCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, enrichEmailsCmd.Flags().Lookup("lead"))
	assert.NotNil(t, testEmailCmd.Flags().Lookup("dry-run"))

	flag := sendTestEmailCmd.Flags().Lookup("step")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)

	assert.NotNil(t, exportCmd.Flags().Lookup("format"))
}

func TestIntArg(t *testing.T) {
	n, err := intArg(nil, 0, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = intArg([]string{"1", "25"}, 1, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = intArg([]string{"two"}, 0, "step", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid step "two"`)
}

// execute runs the root command against a SQLite store in a temp dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func sqliteEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	t.Setenv("LEADGEN_STORE_DRIVER", "sqlite")
	t.Setenv("LEADGEN_STORE_DATABASE_URL", filepath.Join(dir, "leads.db"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SMTP_USER", "")
	t.Setenv("SMTP_PASSWORD", "")
	t.Setenv("LEADGEN_LOG_LEVEL", "error")
	return dir
}

func TestCommands_InitStatusExport(t *testing.T) {
	dir := sqliteEnv(t)

	_, err := execute(t, "init")
	require.NoError(t, err)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS")
	assert.Regexp(t, `cold\s+3`, out)
	assert.Regexp(t, `Total leads:\s+3`, out)
	assert.Regexp(t, `Interactions:\s+0`, out)

	path := filepath.Join(dir, "out", "leads.csv")
	out, err = execute(t, "export-csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 3 leads")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "company_name,email")
}

func TestCommands_ResetRequiresYes(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestCommands_TestEmailConfigMissing(t *testing.T) {
	sqliteEnv(t)

	out, err := execute(t, "test-email-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.user is required")
	assert.Contains(t, out, "(not set)")
}

func TestCommands_RunCampaignBadStep(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "run-campaign", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid step")
}
