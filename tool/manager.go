// Package tool exposes Drive, Docs, research, and memory operations as
// model-callable tools. Every tool returns a JSON payload with a
// success flag so the model can reason over the outcome.
package tool

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/corelabsai/driveagent/drive"
	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
	"github.com/corelabsai/driveagent/memory"
)

type (
	// Researcher produces a markdown research article on a topic. The
	// engine satisfies this.
	Researcher interface {
		Research(ctx context.Context, topic string) (string, error)
	}

	Manager struct {
		logger *mylog.Logger
		tools  []engine.Tool
	}
)

// NewManager wires every tool against the given services. Credentials
// stay inside the drive service; the model only sees tool names and
// schemas.
func NewManager(
	logger *mylog.Logger,
	driveSvc drive.Service,
	memorySvc memory.Service,
	researcher Researcher,
) *Manager {
	m := &Manager{logger: logger}

	m.registerDriveTools(driveSvc)
	m.registerDocsTools(driveSvc)
	m.registerResearchTool(researcher)
	m.registerMemoryTools(memorySvc)

	return m
}

func (m *Manager) Tools() []engine.Tool {
	return m.tools
}

func (m *Manager) Definitions() []engine.ToolDefinition {
	defs := make([]engine.ToolDefinition, 0, len(m.tools))
	for _, t := range m.tools {
		defs = append(defs, t.ToolDefinition)
	}
	return defs
}

// registerTool adds a tool whose handler result is marshalled to JSON.
func registerTool[Req any](m *Manager, name, description string, fn func(ctx context.Context, req *Req) (any, error)) {
	registerRawTool(m, name, description, func(ctx context.Context, req *Req) (string, error) {
		out, err := fn(ctx, req)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(out)
		if err != nil {
			return "", errors.Wrapf(err, "failed to marshal %s output", name)
		}
		return string(data), nil
	})
}

// registerRawTool adds a tool whose handler returns its output verbatim.
func registerRawTool[Req any](m *Manager, name, description string, fn func(ctx context.Context, req *Req) (string, error)) {
	logger := m.logger
	m.tools = append(m.tools, engine.Tool{
		ToolDefinition: engine.ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  buildSchema[Req](),
		},
		Call: func(ctx context.Context, args json.RawMessage) (string, error) {
			req, err := decodeArgs[Req](args)
			if err != nil {
				return "", err
			}
			logger.Debug("calling tool", "tool", name)
			return fn(ctx, req)
		},
	})
}

func buildSchema[Req any]() map[string]any {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(new(Req))

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	delete(out, "$id")

	return out
}

// decodeArgs decodes model-provided arguments leniently, so a numeric
// string still fills an int field.
func decodeArgs[Req any](args json.RawMessage) (*Req, error) {
	raw := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidParams, "invalid tool arguments: %v", err)
		}
	}

	req := new(Req)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           req,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "invalid tool arguments: %v", err)
	}

	return req, nil
}
