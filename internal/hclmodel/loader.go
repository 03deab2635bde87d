package hclmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/model"
)

// Loader parses .hcl model files into the agnostic model.
type Loader struct{}

// NewLoader creates an HCL model loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a single .hcl file or every .hcl file under a directory and
// merges the declared nodes into one model.
func (l *Loader) Load(ctx context.Context, path string) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findModelFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("model files discovered", "count", len(files))

	parser := hclparse.NewParser()
	m := &model.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		for _, nb := range root.Nodes {
			node, err := translateNode(nb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			m.Nodes = append(m.Nodes, node)
		}
	}

	logger.Debug("model loaded", "node_count", len(m.Nodes))
	return m, nil
}

// LoadString parses model source held in memory, used by tests and
// embedding callers.
func (l *Loader) LoadString(src, filename string) (*model.Model, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL([]byte(src), filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	m := &model.Model{}
	for _, nb := range root.Nodes {
		node, err := translateNode(nb)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		m.Nodes = append(m.Nodes, node)
	}
	return m, nil
}

// findModelFiles resolves a path to the .hcl files it covers.
func findModelFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl model files under %s", path)
	}
	return files, nil
}
