package roles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is one role's prompt definition.
type Template struct {
	// From frontmatter (overrides) or built-in.
	Role        Role   `yaml:"role"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// From content.
	Prompt string `yaml:"-"`

	// Location, empty for built-ins.
	Path string `yaml:"-"`
}

// builtin returns the compiled-in templates.
func builtin() map[Role]*Template {
	return map[Role]*Template{
		MarketAnalyst:       {Role: MarketAnalyst, Name: "Market Analyst", Description: "Technical read of price and volume", Prompt: marketPrompt},
		FundamentalsAnalyst: {Role: FundamentalsAnalyst, Name: "Fundamentals Analyst", Description: "Valuation and balance-sheet health", Prompt: fundamentalsPrompt},
		NewsAnalyst:         {Role: NewsAnalyst, Name: "News Analyst", Description: "Headlines and macro developments", Prompt: newsPrompt},
		SocialAnalyst:       {Role: SocialAnalyst, Name: "Sentiment Analyst", Description: "Retail and community mood", Prompt: socialPrompt},
		Bull:                {Role: Bull, Name: "Bull Researcher", Description: "Case for investing", Prompt: bullPrompt},
		Bear:                {Role: Bear, Name: "Bear Researcher", Description: "Case against investing", Prompt: bearPrompt},
		ResearchManager:     {Role: ResearchManager, Name: "Research Manager", Description: "Judges the debate, sets the plan", Prompt: researchManagerPrompt},
		Trader:              {Role: Trader, Name: "Trader", Description: "Concrete transaction proposal", Prompt: traderPrompt},
		Risky:               {Role: Risky, Name: "Aggressive Risk Debater", Description: "Argues for more risk", Prompt: riskyPrompt},
		Safe:                {Role: Safe, Name: "Conservative Risk Debater", Description: "Argues for less risk", Prompt: safePrompt},
		Neutral:             {Role: Neutral, Name: "Neutral Risk Debater", Description: "Keeps both sides honest", Prompt: neutralPrompt},
		RiskManager:         {Role: RiskManager, Name: "Risk Manager", Description: "Binding final decision", Prompt: riskManagerPrompt},
	}
}

// Catalog resolves roles to prompt templates. Built-in templates can be
// overridden by markdown files in a roles directory.
type Catalog struct {
	templates map[Role]*Template
}

// NewCatalog returns a catalog with the built-in templates.
func NewCatalog() *Catalog {
	return &Catalog{templates: builtin()}
}

// Get returns the template for a role.
func (c *Catalog) Get(r Role) (*Template, error) {
	t, ok := c.templates[r]
	if !ok {
		return nil, fmt.Errorf("no template for role %q", r)
	}
	return t, nil
}

// Overridden lists the roles replaced from a roles directory.
func (c *Catalog) Overridden() []Role {
	var out []Role
	for _, r := range All {
		if t, ok := c.templates[r]; ok && t.Path != "" {
			out = append(out, r)
		}
	}
	return out
}

// LoadOverrides replaces built-in templates from *.md files in dir. Files
// that fail to parse are reported; valid ones still apply. A missing
// directory is not an error.
func (c *Catalog) LoadOverrides(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var bad []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		t, err := ParseTemplate(string(content))
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		t.Path = path
		c.templates[t.Role] = t
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid role files: %s", strings.Join(bad, "; "))
	}
	return nil
}

// ParseTemplate parses a role markdown file: YAML frontmatter with at least
// a role field, the prompt as body.
func ParseTemplate(content string) (*Template, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	t := &Template{}
	if err := yaml.Unmarshal([]byte(frontmatter), t); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if t.Role == "" {
		return nil, fmt.Errorf("missing required field: role")
	}
	if !t.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", t.Role)
	}

	t.Prompt = strings.TrimSpace(body)
	if t.Prompt == "" {
		return nil, fmt.Errorf("empty prompt body for role %q", t.Role)
	}
	if t.Name == "" {
		t.Name = string(t.Role)
	}
	return t, nil
}

// splitFrontmatter extracts YAML frontmatter from markdown.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", fmt.Errorf("missing frontmatter delimiter")
	}

	var fmLines []string
	var bodyStart int
	inFrontmatter := true

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			inFrontmatter = false
			bodyStart = i + 1
			break
		}
		if inFrontmatter {
			fmLines = append(fmLines, lines[i])
		}
	}

	if inFrontmatter {
		return "", "", fmt.Errorf("unclosed frontmatter")
	}

	frontmatter = strings.Join(fmLines, "\n")
	if bodyStart < len(lines) {
		body = strings.Join(lines[bodyStart:], "\n")
	}

	return frontmatter, body, nil
}
