package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const (
	StepOpening        = "opening"
	StepNextQuestion   = "next_question"
	StepScoreAnswer    = "score_answer"
	StepScoreInterview = "score_interview"
	StepScoreSkills    = "score_skills"
	StepSummary        = "performance_summary"
)

// Rendered is a prompt ready to send: the system context and the user prompt.
type Rendered struct {
	Context string
	Prompt  string
}

// Manager holds the parsed prompt templates, one per step.
type Manager struct {
	steps map[string]step
}

type step struct {
	context *template.Template
	prompt  *template.Template
}

// file layout of templates/<step>.yaml
type promptFile struct {
	Context string `yaml:"context"`
	Prompt  string `yaml:"prompt"`
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// NewManager loads and parses every embedded template.
func NewManager() (*Manager, error) {
	m := &Manager{steps: make(map[string]step)}
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return m, nil
}

// Render executes the templates of a step with data.
func (m *Manager) Render(name string, data any) (Rendered, error) {
	s, ok := m.steps[name]
	if !ok {
		return Rendered{}, fmt.Errorf("template not found for step: %s", name)
	}

	context, err := execute(s.context, data)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s context: %w", name, err)
	}
	prompt, err := execute(s.prompt, data)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s prompt: %w", name, err)
	}

	return Rendered{Context: context, Prompt: prompt}, nil
}

func (m *Manager) load() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var file promptFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if strings.TrimSpace(file.Prompt) == "" {
			return fmt.Errorf("template file %s has an empty prompt", entry.Name())
		}

		contextTmpl, err := template.New(name + ".context").Funcs(funcs).Option("missingkey=error").Parse(file.Context)
		if err != nil {
			return fmt.Errorf("failed to compile %s context: %w", name, err)
		}
		promptTmpl, err := template.New(name + ".prompt").Funcs(funcs).Option("missingkey=error").Parse(file.Prompt)
		if err != nil {
			return fmt.Errorf("failed to compile %s prompt: %w", name, err)
		}

		m.steps[name] = step{context: contextTmpl, prompt: promptTmpl}
	}

	return nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
