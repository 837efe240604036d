package icons

import (
	"os"
	"path/filepath"
	"testing"
)

func writePack(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write pack file: %v", err)
	}
	return path
}

func TestLoadPack(t *testing.T) {
	path := writePack(t, `
name: custom
icons:
  - id: kubernetes
    name: Kubernetes
    description: Container orchestrator
  - id: terraform
    name: Terraform
`)

	pack, err := LoadPack(path)
	if err != nil {
		t.Fatalf("LoadPack failed: %v", err)
	}
	if pack.Name != "custom" {
		t.Errorf("expected pack name custom, got %q", pack.Name)
	}
	if len(pack.Icons) != 2 {
		t.Fatalf("expected 2 icons, got %d", len(pack.Icons))
	}

	// Pack icons must be resolvable once registered.
	known := KnownSet(pack.IDs()...)
	if got := Resolve("Kubernetes", known); got != "kubernetes" {
		t.Errorf("Resolve(Kubernetes) = %q, want kubernetes", got)
	}
}

func TestLoadPackRejectsDuplicates(t *testing.T) {
	path := writePack(t, `
name: broken
icons:
  - id: thing
  - id: thing
`)
	if _, err := LoadPack(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadPackRejectsUppercaseIDs(t *testing.T) {
	path := writePack(t, `
name: broken
icons:
  - id: Thing
`)
	if _, err := LoadPack(path); err == nil {
		t.Fatal("expected lower-case id error")
	}
}

func TestLoadPackRejectsEmpty(t *testing.T) {
	path := writePack(t, "name: empty\nicons: []\n")
	if _, err := LoadPack(path); err == nil {
		t.Fatal("expected empty pack error")
	}
}
