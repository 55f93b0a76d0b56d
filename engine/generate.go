package engine

import (
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/corelabsai/driveagent/errors"
)

var (
	//go:embed data/instructions/research.md.tmpl
	researchTmpl     string
	researchTemplate = template.Must(template.New("research").Parse(researchTmpl))

	//go:embed data/instructions/summarize.md.tmpl
	summarizeTmpl     string
	summarizeTemplate = template.Must(template.New("summarize").Parse(summarizeTmpl))

	//go:embed data/instructions/plan_actions.md.tmpl
	planActionsTmpl     string
	planActionsTemplate = template.Must(template.New("plan_actions").Parse(planActionsTmpl))
)

const defaultSummaryWords = 150

// Summarize returns a concise summary of text preserving key facts.
// maxWords <= 0 uses the default.
func (e *Engine) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = defaultSummaryWords
	}

	prompt, err := renderTemplate(summarizeTemplate, struct {
		MaxWords int
		Text     string
	}{maxWords, text})
	if err != nil {
		return "", err
	}

	summary, err := e.generate(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

// Research generates a markdown research article on the topic.
func (e *Engine) Research(ctx context.Context, topic string) (string, error) {
	prompt, err := renderTemplate(researchTemplate, struct {
		Topic string
	}{topic})
	if err != nil {
		return "", err
	}

	return e.generate(ctx, "", prompt)
}

// PlanActions returns a JSON action plan for the command without
// executing anything. Used by preview mode.
func (e *Engine) PlanActions(ctx context.Context, command, memoryContext string, tools []ToolDefinition) (string, error) {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}

	prompt, err := renderTemplate(planActionsTemplate, struct {
		Tools   string
		Command string
		Context string
	}{strings.Join(names, ", "), command, memoryContext})
	if err != nil {
		return "", err
	}

	plan, err := e.generate(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(plan), nil
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s template", tmpl.Name())
	}
	return buf.String(), nil
}
