package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTargets_YAML(t *testing.T) {
	path := writeBatchFile(t, `
- class: organizational
  entity_name: Acme Corp
  entity_url: https://acme.example
- class: legislative
  subject: transit funding
  scope: WA state
  topics: [transit, budget]
`)

	targets, err := loadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "organizational", targets[0].Class)
	assert.Equal(t, "Acme Corp", targets[0].EntityName)
	assert.Equal(t, "legislative", targets[1].Class)
	assert.Equal(t, []string{"transit", "budget"}, targets[1].Topics)
}

func TestLoadTargets_JSON(t *testing.T) {
	path := writeBatchFile(t, `[{"class":"corporate","entity_name":"Globex"}]`)

	targets, err := loadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Globex", targets[0].EntityName)
}

func TestLoadTargets_SkipsEntriesWithoutClass(t *testing.T) {
	path := writeBatchFile(t, `
- class: corporate
  entity_name: Globex
- entity_name: No Class Inc
`)

	targets, err := loadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Globex", targets[0].EntityName)
}

func TestLoadTargets_MissingFile(t *testing.T) {
	_, err := loadTargets("/nonexistent/targets.yaml")
	require.Error(t, err)
}
