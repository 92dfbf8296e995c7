package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsMapToOptions(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--tenant", "acme", "--dry-run", "--limit", "5", "--pages", "--include-private"}))

	f := flags{}
	f.tenant, _ = cmd.Flags().GetString("tenant")
	f.dryRun, _ = cmd.Flags().GetBool("dry-run")
	f.limit, _ = cmd.Flags().GetInt("limit")
	f.pages, _ = cmd.Flags().GetBool("pages")
	f.includePrivate, _ = cmd.Flags().GetBool("include-private")

	opts := f.options()
	assert.Equal(t, "acme", opts.Tenant)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 5, opts.Limit)
	assert.True(t, opts.IncludePages)
	assert.True(t, opts.IncludePrivate)
}

func TestExecuteSetupFailures(t *testing.T) {
	assert.Equal(t, exitSetup, execute([]string{}))
	assert.Equal(t, exitSetup, execute([]string{"--tenant", "acme", "--limit", "-1"}))
	assert.Equal(t, exitSetup, execute([]string{"--tenant", "acme", "--config", filepath.Join(t.TempDir(), "missing.yml")}))
}
