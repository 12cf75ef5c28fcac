package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

const validYAML = `
kind: panel
schema_version: 1
name: 장비 패널
grid:
  cols: 12
  rows: 10
boxes:
  - id: tool-slot
    title: 도구
    left: 62
    top: 8
    width: 20
    height: 16
    slot_type: tool
items:
  - id: hammer
    label: 망치
    type: tool
    w: 2
    col: 3
    row: 2
stats:
  keys: ["힘", "재주", "지능"]
progression:
  source: sheet
  sheet:
    id: abc123
`

func TestLoadAppliesDefaults(t *testing.T) {
	cat, err := Load(writeCatalog(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Grid.Gap != 4 || cat.Grid.MinCell != 12 || cat.Grid.SideGutter != 8 {
		t.Fatalf("grid defaults not applied: %+v", cat.Grid)
	}
	it, ok := cat.Item("hammer")
	if !ok {
		t.Fatalf("item lookup failed")
	}
	if it.W != 2 || it.H != 1 {
		t.Fatalf("item height must default to 1: %+v", it)
	}
	if cat.Progression.Sheet.GID != "0" {
		t.Fatalf("sheet gid must default to 0: %+v", cat.Progression.Sheet)
	}
	spec := cat.GridModelSpec()
	if spec.Cols != 12 || spec.Rows != 10 || spec.Gap != 4 {
		t.Fatalf("grid model spec mismatch: %+v", spec)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	bad := `
kind: panel
schema_version: 1
name: dup
grid: {cols: 4, rows: 4}
items:
  - {id: hammer}
  - {id: hammer}
`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatalf("duplicate item ids must be rejected")
	}
}

func TestLoadRejectsWrongKind(t *testing.T) {
	bad := `
kind: inventory
schema_version: 1
name: x
grid: {cols: 4, rows: 4}
`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatalf("unknown kind must be rejected")
	}
}

func TestLoadRejectsSheetSourceWithoutID(t *testing.T) {
	bad := `
kind: panel
schema_version: 1
name: x
grid: {cols: 4, rows: 4}
progression:
  source: sheet
`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatalf("sheet source without an id must be rejected")
	}
}

func TestLoadRejectsFutureSchema(t *testing.T) {
	bad := `
kind: panel
schema_version: 2
name: x
grid: {cols: 4, rows: 4}
`
	if _, err := Load(writeCatalog(t, bad)); err == nil {
		t.Fatalf("future schema_version must be rejected")
	}
}
