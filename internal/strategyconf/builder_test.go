package strategyconf

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBuilder_WritesDocument(t *testing.T) {
	b := NewBuilder(t.TempDir(), "")
	art, err := b.Build("a1b2c3d4", ParamsFromMap(validBag()))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if filepath.Base(art.Path) != DefaultFileName {
		t.Fatalf("path=%q", art.Path)
	}
	if art.Dir != b.Dir("a1b2c3d4") {
		t.Fatalf("dir=%q want=%q", art.Dir, b.Dir("a1b2c3d4"))
	}

	raw, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(raw, &got); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if got["trading_pair"] != "BTC-USDT" || got["grid_count"] != 10 {
		t.Fatalf("doc=%v", got)
	}

	loaded, err := b.Load("a1b2c3d4")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.UpperPrice != 200 || loaded.AmountPerGrid != 5 {
		t.Fatalf("loaded=%+v", loaded)
	}
}

func TestBuilder_InvalidWritesNothing(t *testing.T) {
	base := t.TempDir()
	b := NewBuilder(base, "")
	bag := validBag()
	bag["gridCount"] = 1
	if _, err := b.Build("deadbeef", ParamsFromMap(bag)); err == nil {
		t.Fatalf("expected validation error")
	}
	if b.Exists("deadbeef") {
		t.Fatalf("working dir created on validation failure")
	}
	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Fatalf("base dir not empty: %d entries", len(entries))
	}
}

func TestBuilder_RejectsPathLikeIDs(t *testing.T) {
	b := NewBuilder(t.TempDir(), "")
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := b.Build(id, ParamsFromMap(validBag())); err == nil {
			t.Fatalf("id=%q accepted", id)
		}
	}
}

func TestBuilder_RemoveIsIdempotent(t *testing.T) {
	b := NewBuilder(t.TempDir(), "custom.yml")
	if _, err := b.Build("cafebabe", ParamsFromMap(validBag())); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !b.Exists("cafebabe") {
		t.Fatalf("expected dir")
	}
	if err := b.Remove("cafebabe"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := b.Remove("cafebabe"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if b.Exists("cafebabe") {
		t.Fatalf("dir still present")
	}
	ids, err := b.IDs()
	if err != nil || len(ids) != 0 {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}
