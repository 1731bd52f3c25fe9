// Package summary renders a human readable digest of a form configuration,
// optionally filled with a record and its validation errors. Text output goes
// through pongo2 templates; YAML output marshals the same Summary value.
package summary

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

//go:embed templates/*.tpl
var embedded embed.FS

// TemplatesFS exposes the built-in templates so callers can copy or extend
// them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return embedded
	}
	return sub
}

// DefaultTemplate is the template used by Render.
const DefaultTemplate = "summary.tpl"

// Summary is the rendered view of one form.
type Summary struct {
	Title      string            `json:"title" yaml:"title"`
	FormType   string            `json:"form_type" yaml:"form_type"`
	Categories []CategorySummary `json:"categories" yaml:"categories"`
	ErrorCount int               `json:"error_count,omitempty" yaml:"error_count,omitempty"`
}

// CategorySummary groups fields under one category.
type CategorySummary struct {
	Name   string         `json:"name" yaml:"name"`
	Fields []FieldSummary `json:"fields" yaml:"fields"`
}

// FieldSummary is one enabled field.
type FieldSummary struct {
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label" yaml:"label"`
	Type     string   `json:"type" yaml:"type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Core     bool     `json:"core,omitempty" yaml:"core,omitempty"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Build assembles the summary of cfg. record and errs may be nil.
func Build(title string, cfg model.FormConfiguration, record model.Record, errs validation.FieldErrors) Summary {
	if strings.TrimSpace(title) == "" {
		title = cfg.FormType
	}
	out := Summary{Title: title, FormType: cfg.FormType}
	for _, group := range formconfig.ByCategory(cfg.Fields) {
		category := CategorySummary{Name: group.Name}
		for _, field := range group.Fields {
			item := FieldSummary{
				Name:     field.Name,
				Label:    field.Label(),
				Type:     string(field.FieldType),
				Required: field.EffectiveRequired(),
				Core:     field.IsCore,
				Value:    displayValue(field, record[field.Name]),
				Errors:   append([]string(nil), errs[field.Name]...),
			}
			if len(item.Errors) > 0 {
				out.ErrorCount++
			}
			category.Fields = append(category.Fields, item)
		}
		out.Categories = append(out.Categories, category)
	}
	return out
}

// displayValue renders v, using option labels for choice fields.
func displayValue(field model.FieldDescriptor, v model.Value) string {
	if v.IsNull() {
		return ""
	}
	labels := make(map[string]string, len(field.Options))
	for _, opt := range field.Options {
		labels[opt.Value] = opt.Label
	}
	label := func(value string) string {
		if l, ok := labels[value]; ok && l != "" {
			return l
		}
		return value
	}
	if v.Kind() == model.KindList {
		items := v.Items()
		for i := range items {
			items[i] = label(items[i])
		}
		return strings.Join(items, ", ")
	}
	if field.FieldType == model.FieldPassword && v.Text() != "" {
		return "********"
	}
	return label(v.Text())
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
}

// WithBaseDir loads templates from dir before the embedded ones.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files before the embedded ones.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// Renderer renders summaries through a pongo2 template set.
type Renderer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New constructs a Renderer.
func New(opts ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("summary: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	loaders = append(loaders, pongo2.NewFSLoader(TemplatesFS()))

	return &Renderer{
		set:       pongo2.NewSet("formkit-summary", loaders...),
		templates: make(map[string]*pongo2.Template),
	}, nil
}

// Render writes s as text using the named template, or DefaultTemplate when
// name is empty.
func (r *Renderer) Render(w io.Writer, name string, s Summary) error {
	if r == nil || r.set == nil {
		return errors.New("summary: renderer is nil")
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultTemplate
	}
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}
	if err := tmpl.ExecuteWriter(pongo2.Context{"summary": s}, w); err != nil {
		return fmt.Errorf("summary: execute template %q: %w", name, err)
	}
	return nil
}

// RenderString renders s with an inline template.
func (r *Renderer) RenderString(content string, s Summary) (string, error) {
	if r == nil || r.set == nil {
		return "", errors.New("summary: renderer is nil")
	}
	tmpl, err := r.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("summary: parse template string: %w", err)
	}
	out, err := tmpl.Execute(pongo2.Context{"summary": s})
	if err != nil {
		return "", fmt.Errorf("summary: execute template string: %w", err)
	}
	return out, nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("summary: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

// WriteYAML writes s as YAML.
func WriteYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("summary: encode yaml: %w", err)
	}
	return enc.Close()
}
