package config

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/corelabsai/driveagent/errors"
)

// PersonaConfig customises how the agent presents itself. Loaded from
// an optional YAML file passed on the command line.
type PersonaConfig struct {
	Name   string   `yaml:"name"`
	Role   string   `yaml:"role"`
	System string   `yaml:"system"`
	Bio    []string `yaml:"bio"`
}

func LoadPersonaFromFile(file string) (persona PersonaConfig, err error) {
	var yamlBytes []byte
	if yamlBytes, err = os.ReadFile(file); err != nil {
		err = errors.Wrapf(err, "failed to read file %s", file)
		return
	}

	if err = yaml.Unmarshal(yamlBytes, &persona); err != nil {
		err = errors.Wrapf(err, "failed to unmarshal file %s", file)
		return
	}

	return
}

// Compose appends the persona sections to the base system prompt.
func (p *PersonaConfig) Compose(base string) string {
	var sb strings.Builder
	sb.WriteString(base)

	if p.Name != "" {
		sb.WriteString("\n\nYour name is ")
		sb.WriteString(p.Name)
		sb.WriteString(".")
	}
	if p.Role != "" {
		sb.WriteString("\nYour role: ")
		sb.WriteString(p.Role)
	}
	if p.System != "" {
		sb.WriteString("\n\n")
		sb.WriteString(p.System)
	}
	if len(p.Bio) > 0 {
		sb.WriteString("\n\nAbout you:\n")
		for _, line := range p.Bio {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
