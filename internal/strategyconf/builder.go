package strategyconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

const DefaultFileName = "conf_grid.yml"

type Builder struct {
	baseDir  string
	fileName string
}

// Artifact is a written working directory.
type Artifact struct {
	Dir      string
	Path     string
	Document Document
}

func NewBuilder(baseDir, fileName string) *Builder {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	return &Builder{baseDir: baseDir, fileName: fileName}
}

func (b *Builder) FileName() string {
	return b.fileName
}

// Dir returns the absolute working directory for id.
func (b *Builder) Dir(id string) string {
	dir := filepath.Join(b.baseDir, id)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (b *Builder) Build(id string, p Params) (*Artifact, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	doc, err := Validate(p)
	if err != nil {
		return nil, err
	}
	return b.Write(id, doc)
}

// Write replaces the working directory of id with a fresh copy of doc.
func (b *Builder) Write(id string, doc Document) (*Artifact, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	dir := b.Dir(id)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset working dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create working dir: %w", err)
	}
	path := filepath.Join(dir, b.fileName)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write config: %w", err)
	}
	return &Artifact{Dir: dir, Path: path, Document: doc}, nil
}

// Load reads a previously written document back.
func (b *Builder) Load(id string) (Document, error) {
	if err := checkID(id); err != nil {
		return Document{}, err
	}
	body, err := os.ReadFile(filepath.Join(b.Dir(id), b.fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, apperr.NotFound("config for strategy %s not found", id)
		}
		return Document{}, err
	}
	var doc Document
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("decode config: %w", err)
	}
	return doc, nil
}

// Remove deletes the working directory of id. Missing directories are fine.
func (b *Builder) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return os.RemoveAll(b.Dir(id))
}

// Exists reports whether the working directory of id is present.
func (b *Builder) Exists(id string) bool {
	if checkID(id) != nil {
		return false
	}
	st, err := os.Stat(b.Dir(id))
	return err == nil && st.IsDir()
}

// IDs lists the working directories under the base dir.
func (b *Builder) IDs() ([]string, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func checkID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return apperr.Validation("invalid strategy id")
	}
	return nil
}
