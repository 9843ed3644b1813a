package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vcrobe/wml/internal/ctxlog"
)

// templateExtensions are the file extensions of template sources.
var templateExtensions = map[string]bool{
	".wml":  true,
	".tmpl": true,
}

// TemplateFile is a template source found under a root directory.
type TemplateFile struct {
	// Path is the file path on disk.
	Path string
	// Name is the slash-separated path relative to the root, used as the
	// template file name.
	Name string
}

// Discover finds every template under rootDir, in lexical order.
func Discover(rootDir string) ([]TemplateFile, error) {
	var files []TemplateFile
	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !templateExtensions[filepath.Ext(p)] {
			return nil
		}
		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return err
		}
		files = append(files, TemplateFile{Path: p, Name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover templates in %s: %w", rootDir, err)
	}
	return files, nil
}

// CompileDir compiles every template under rootDir and writes the module
// text next to it with a .js extension. It stops at the first failure.
func CompileDir(ctx context.Context, rootDir string, opts Options) ([]TemplateFile, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := Discover(rootDir)
	if err != nil {
		return nil, err
	}
	logger.Info("Discovered templates.", "dir", rootDir, "count", len(files))

	for _, f := range files {
		src, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", f.Path, err)
		}
		fileOpts := opts
		fileOpts.FileName = f.Name
		art, err := Compile(ctx, string(src), fileOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to compile template %s: %w", f.Name, err)
		}
		out := strings.TrimSuffix(f.Path, filepath.Ext(f.Path)) + ".js"
		if err := os.WriteFile(out, []byte(art.Text()), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", out, err)
		}
		logger.Debug("Template written.", "template", f.Name, "out", out)
	}
	return files, nil
}
