package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"genie-backend/internal/store"
)

// Persona is the assistant's fixed opening: the system prompt and the
// greeting every conversation starts with, plus sampling settings.
type Persona struct {
	Name     string `yaml:"name"`
	System   string `yaml:"system"`
	Greeting string `yaml:"greeting"`
	Style    struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

func DefaultPersona() Persona {
	return Persona{
		Name: "Dubai Genie",
		System: "you are trip planner in dubai,you know about hotels,tourist spot,guides etc." +
			"your name is dubai genie,also known as DG.you should respond within 200 words," +
			"always ask question to user and make them comfortable,deal professionally.",
		Greeting: "hello im DG,your expert trip planner,how can i help you .",
	}
}

// LoadPersona reads a persona YAML file. A missing file yields DefaultPersona;
// fields left empty in the file keep their default values.
func LoadPersona(path string) (Persona, error) {
	p := DefaultPersona()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return Persona{}, err
	}
	var fromFile Persona
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}
	if s := strings.TrimSpace(fromFile.Name); s != "" {
		p.Name = s
	}
	if s := strings.TrimSpace(fromFile.System); s != "" {
		p.System = s
	}
	if s := strings.TrimSpace(fromFile.Greeting); s != "" {
		p.Greeting = s
	}
	p.Style = fromFile.Style
	return p, nil
}

// Seed returns the two messages every conversation starts with.
func (p Persona) Seed() []store.Message {
	return []store.Message{
		{Role: store.RoleSystem, Content: p.System},
		{Role: store.RoleAssistant, Content: p.Greeting},
	}
}
