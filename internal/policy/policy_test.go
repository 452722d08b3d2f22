package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sla:
  - priority: Alta
    first_response_minutes: 30
    resolution_minutes: 240
  - priority: Baja
    first_response_minutes: 240
    resolution_minutes: 2880
categories:
  - id: billing
    type: Consulta
    priority: Baja
    destination_profile: facturacion
`

func TestParseLookups(t *testing.T) {
	p, err := Parse([]byte(sample))
	require.NoError(t, err)
	ctx := context.Background()

	rule, ok := p.Lookup(ctx, "alta")
	require.True(t, ok)
	assert.Equal(t, 30, rule.FirstResponseMinutes)
	assert.Equal(t, 240, rule.ResolutionMinutes)
	assert.Equal(t, "Alta", rule.Priority)

	_, ok = p.Lookup(ctx, "Media")
	assert.False(t, ok)

	category, ok := p.Category(ctx, "billing")
	require.True(t, ok)
	assert.Equal(t, "facturacion", category.DestinationProfile)

	_, ok = p.Category(ctx, "unknown")
	assert.False(t, ok)
	assert.Equal(t, 2, p.Rules())
}

func TestParseRejectsInvalidRules(t *testing.T) {
	cases := map[string]string{
		"missing priority": "sla:\n  - first_response_minutes: 1\n    resolution_minutes: 2\n",
		"zero budget":      "sla:\n  - priority: Alta\n    first_response_minutes: 0\n    resolution_minutes: 2\n",
		"duplicate":        "sla:\n  - {priority: Alta, first_response_minutes: 1, resolution_minutes: 2}\n  - {priority: alta, first_response_minutes: 1, resolution_minutes: 2}\n",
		"category no id":   "categories:\n  - type: x\n",
		"not yaml":         "sla: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Rules())
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	_, ok := p.Lookup(context.Background(), "Baja")
	assert.True(t, ok)
}
