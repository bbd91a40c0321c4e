package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Built-in template names
const (
	TagLogTemplate     = "tag_log.tmpl"
	SiteFinderTemplate = "site_finder.tmpl"
)

// TimestampLayout is used in every generated file name (MM-DD-YYYY_THH-MM-SS)
const TimestampLayout = "01-02-2006_T15-04-05"

// TemplateData represents data passed to the text report templates
type TemplateData struct {
	Title       string
	RunID       string
	GeneratedAt time.Time
	Lines       []string
	// Free-form values, e.g. the environment and host of the run
	Static      map[string]interface{}
}

// Renderer handles template rendering
type Renderer struct {
	templateDir string
}

// NewRenderer creates a new Renderer. Relative template paths are resolved
// against templateDir
func NewRenderer(templateDir string) *Renderer {
	return &Renderer{
		templateDir: templateDir,
	}
}

// Render renders a template file with the given data
func (r *Renderer) Render(templatePath string, data interface{}) ([]byte, error) {
	if !filepath.IsAbs(templatePath) && r.templateDir != "" {
		templatePath = filepath.Join(r.templateDir, templatePath)
	}

	// Read template file
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	return execute(filepath.Base(templatePath), string(content), data)
}

// RenderBuiltin renders one of the templates shipped with the binary
func (r *Renderer) RenderBuiltin(name string, data interface{}) ([]byte, error) {
	content, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("unknown built-in template '%s': %w", name, err)
	}
	return execute(name, string(content), data)
}

// RenderReport renders override when set, otherwise the built-in template
func (r *Renderer) RenderReport(builtin, override string, data interface{}) ([]byte, error) {
	if override != "" {
		return r.Render(override, data)
	}
	return r.RenderBuiltin(builtin, data)
}

func execute(name, content string, data interface{}) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"timestamp": Timestamp,
		"join":      strings.Join,
	}).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile writes content to path, creating the parent directory if needed
func WriteFile(path string, content []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}
	return nil
}

// Timestamp formats t with TimestampLayout
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// TimestampedName builds "<prefix>(<timestamp>)<ext>", e.g. "Site_Finder(01-02-2024_T15-04-05).txt"
func TimestampedName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s(%s)%s", prefix, Timestamp(t), ext)
}
