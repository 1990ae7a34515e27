package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
)

func setEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("AMQP_URL", "")
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SUMMARY_CACHE_TTL", "")
	t.Setenv("PRESUPUESTO_USER", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

var recordedID = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "add", "list", "summary", "edit", "delete", "export", "categories"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"backend", "data-dir", "user"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestAddListEditDelete(t *testing.T) {
	dir := setEnv(t)

	out, err := run(t, "add", "-u", "ana", "--kind", "gasto", "--category", "Alimentos",
		"--description", "Supermercado", "--amount", "45,90")
	require.NoError(t, err)
	m := recordedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]
	assert.FileExists(t, filepath.Join(dir, "ana.json"))

	out, err = run(t, "list", "-u", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Supermercado")
	assert.Contains(t, out, "45.90")
	assert.Contains(t, out, "Page 1 of 1")

	out, err = run(t, "edit", id, "-u", "ana", "--amount", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "now 50.00")

	out, err = run(t, "summary", "-u", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "1 movements")
	assert.Contains(t, out, "-50.00")

	_, err = run(t, "delete", id, "-u", "ana")
	require.NoError(t, err)

	_, err = run(t, "delete", id, "-u", "ana")
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}

func TestAddRejectsInvalidEntry(t *testing.T) {
	setEnv(t)

	_, err := run(t, "add", "-u", "ana", "--kind", "gasto", "--category", "Viajes",
		"--description", "x", "--amount", "1")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = run(t, "add", "-u", "ana", "--kind", "gasto", "--category", "Salud",
		"--description", "x", "--amount", "-3")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = run(t, "add", "--kind", "gasto", "--category", "Salud",
		"--description", "x", "--amount", "3")
	assert.ErrorContains(t, err, "--user is required")
}

func TestListWindowExcludesOutsideMovements(t *testing.T) {
	setEnv(t)
	_, err := run(t, "add", "-u", "ana", "-k", "ingreso", "-c", "Salario", "-d", "nomina", "-a", "1000")
	require.NoError(t, err)

	out, err := run(t, "list", "-u", "ana", "--from", "2000-01-01", "--to", "2000-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "No movements between 2000-01-01 and 2000-01-31")

	_, err = run(t, "list", "-u", "ana", "--from", "01/01/2000")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestExportToStdout(t *testing.T) {
	setEnv(t)
	_, err := run(t, "add", "-u", "ana", "-k", "ahorro", "-c", "Metas", "-d", "viaje", "-a", "200")
	require.NoError(t, err)

	today := core.DateOf(time.Now()).String()
	out, err := run(t, "export", "-u", "ana", "--from", "2000-01-01", "--to", today, "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "viaje")
	assert.Contains(t, out, "Saldo")

	_, err = run(t, "export", "-u", "ana", "--format", "odt", "--out", "-")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestExportWritesDefaultFilename(t *testing.T) {
	setEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = run(t, "export", "-u", "ana", "--from", "2024-01-01", "--to", "2024-01-31", "--format", "xlsx")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(tmp, "presupuesto_ana_2024-01-01_2024-01-31.xlsx"))
}

func TestCategoriesWithSuggestions(t *testing.T) {
	setEnv(t)
	out, err := run(t, "categories", "--suggestions")
	require.NoError(t, err)
	assert.Contains(t, out, "Gasto (expense)")
	assert.Contains(t, out, "Alimentos")
}

func TestBackendFlagOverridesEnvironment(t *testing.T) {
	setEnv(t)
	_, err := run(t, "add", "-u", "ana", "-k", "gasto", "-c", "Salud", "-d", "farmacia", "-a", "12")
	require.NoError(t, err)

	out, err := run(t, "summary", "-u", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "1 movements")

	out, err = run(t, "--backend", "memory", "summary", "-u", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "0 movements")

	_, err = run(t, "--backend", "postgres", "summary", "-u", "ana")
	assert.ErrorContains(t, err, "configuration validation failed")
}
