package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genie-backend/internal/store"
)

func TestLoadPersonaMissingFileUsesDefault(t *testing.T) {
	p, err := LoadPersona(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona(), p)
}

func TestLoadPersonaOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	body := `
name: Test Genie
greeting: "hi, where to?"
style:
  temperature: 0.4
  max_tokens: 300
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	p, err := LoadPersona(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Genie", p.Name)
	assert.Equal(t, "hi, where to?", p.Greeting)
	assert.Equal(t, DefaultPersona().System, p.System)
	assert.InDelta(t, 0.4, p.Style.Temperature, 1e-6)
	assert.Equal(t, 300, p.Style.MaxTokens)
}

func TestLoadPersonaInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system: [unterminated"), 0o600))

	_, err := LoadPersona(path)
	assert.Error(t, err)
}

func TestShippedPersonaLoads(t *testing.T) {
	p, err := LoadPersona("../../prompts/genie.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona(), p)
}

func TestSeedOrder(t *testing.T) {
	seed := DefaultPersona().Seed()
	require.Len(t, seed, 2)
	assert.Equal(t, store.RoleSystem, seed[0].Role)
	assert.Equal(t, store.RoleAssistant, seed[1].Role)
}
