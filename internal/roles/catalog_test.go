package roles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinCatalogCoversAllRoles(t *testing.T) {
	c := NewCatalog()
	for _, r := range All {
		tmpl, err := c.Get(r)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", r, err)
		}
		if tmpl.Prompt == "" {
			t.Errorf("role %s has empty prompt", r)
		}
		if tmpl.Name == "" {
			t.Errorf("role %s has empty name", r)
		}
	}
}

func TestGetUnknownRole(t *testing.T) {
	c := NewCatalog()
	if _, err := c.Get(Role("astrologer")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseTemplate(t *testing.T) {
	content := `---
role: bull
name: Custom Bull
description: House bull view
---
Always argue the upside.`

	tmpl, err := ParseTemplate(content)
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}
	if tmpl.Role != Bull {
		t.Errorf("wrong role: %s", tmpl.Role)
	}
	if tmpl.Name != "Custom Bull" {
		t.Errorf("wrong name: %s", tmpl.Name)
	}
	if tmpl.Prompt != "Always argue the upside." {
		t.Errorf("wrong prompt: %q", tmpl.Prompt)
	}
}

func TestParseTemplateMissingRole(t *testing.T) {
	content := `---
name: Nameless
---
Body text.`

	if _, err := ParseTemplate(content); err == nil {
		t.Error("expected error for missing role field")
	}
}

func TestParseTemplateUnknownRole(t *testing.T) {
	content := `---
role: oracle
---
Body text.`

	if _, err := ParseTemplate(content); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseTemplateNoFrontmatter(t *testing.T) {
	if _, err := ParseTemplate("just a prompt"); err == nil {
		t.Error("expected error for missing frontmatter")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	override := `---
role: bear
name: House Bear
---
Argue the downside, always.`
	if err := os.WriteFile(filepath.Join(dir, "bear.md"), []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	if err := c.LoadOverrides(dir); err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}

	tmpl, _ := c.Get(Bear)
	if tmpl.Name != "House Bear" {
		t.Errorf("override not applied: %s", tmpl.Name)
	}
	if tmpl.Path == "" {
		t.Error("override path not recorded")
	}

	// Other roles untouched
	bull, _ := c.Get(Bull)
	if bull.Path != "" {
		t.Error("bull should still be built-in")
	}

	got := c.Overridden()
	if len(got) != 1 || got[0] != Bear {
		t.Errorf("Overridden() = %v, want [bear]", got)
	}
}

func TestLoadOverridesMissingDir(t *testing.T) {
	c := NewCatalog()
	if err := c.LoadOverrides(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("missing dir should not be an error: %v", err)
	}
}

func TestLoadOverridesBadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.md"), []byte("no frontmatter here"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	err := c.LoadOverrides(dir)
	if err == nil {
		t.Fatal("expected error for bad role file")
	}
	if !strings.Contains(err.Error(), "broken.md") {
		t.Errorf("error should name the bad file: %v", err)
	}
}
