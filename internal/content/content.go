// Package content loads the portfolio copy shown in each section.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Section is one top-level panel of the page.
type Section struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Skill is one animated skill bar; Width is a CSS width such as "80%".
type Skill struct {
	Name  string `yaml:"name" json:"name"`
	Width string `yaml:"width" json:"width"`
}

// Project is a portfolio item. Body is markdown.
type Project struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Body     string `yaml:"body"`
}

// Entry is a work or education timeline item.
type Entry struct {
	Title  string   `yaml:"title"`
	Org    string   `yaml:"org"`
	Start  string   `yaml:"start"`
	End    string   `yaml:"end"`
	Logo   string   `yaml:"logo"`
	Points []string `yaml:"points"`
}

// Portfolio is the whole site copy.
type Portfolio struct {
	Owner      string    `yaml:"owner"`
	Roles      []string  `yaml:"roles"`
	Sections   []Section `yaml:"sections"`
	About      string    `yaml:"about"`
	Skills     []Skill   `yaml:"skills"`
	Projects   []Project `yaml:"projects"`
	Experience []Entry   `yaml:"experience"`
	Education  []Entry   `yaml:"education"`
	Plans      []Plan    `yaml:"plans"`
}

// Default returns the built-in portfolio.
func Default() (*Portfolio, error) {
	return parse(defaultYAML)
}

// Load reads a portfolio file. An empty path yields the built-in one.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return p, nil
}

func parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Portfolio) validate() error {
	if len(p.Sections) == 0 {
		return fmt.Errorf("content defines no sections")
	}
	seen := make(map[string]bool, len(p.Sections))
	for _, s := range p.Sections {
		if s.ID == "" {
			return fmt.Errorf("section %q has no id", s.Title)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate section id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// SectionIDs returns section ids in page order.
func (p *Portfolio) SectionIDs() []string {
	ids := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		ids[i] = s.ID
	}
	return ids
}

// HasSection reports whether id names a section.
func (p *Portfolio) HasSection(id string) bool {
	for _, s := range p.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders src to trusted HTML. Content files are authored by the
// site owner, so the output is not sanitized.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
