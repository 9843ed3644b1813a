package compiler

import (
	"context"
	"fmt"

	"github.com/vcrobe/wml/internal/ctxlog"
)

// ModuleLoader resolves a dependency ref to the loaded module.
type ModuleLoader interface {
	Load(ctx context.Context, ref string) (any, error)
}

// LoaderFunc adapts a function to ModuleLoader.
type LoaderFunc func(ctx context.Context, ref string) (any, error)

func (f LoaderFunc) Load(ctx context.Context, ref string) (any, error) { return f(ctx, ref) }

// Modules is a ModuleLoader over modules registered in advance.
type Modules map[string]any

func (m Modules) Load(_ context.Context, ref string) (any, error) {
	v, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("module %q is not registered", ref)
	}
	return v, nil
}

// loadDependencies loads every ref in order. It stops at the first
// failure or when ctx is done.
func loadDependencies(ctx context.Context, loader ModuleLoader, refs []string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	modules := make(map[string]any, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := loader.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to load dependency %s: %w", ref, err)
		}
		modules[ref] = m
	}
	logger.Debug("Dependencies loaded.", "count", len(modules))
	return modules, nil
}
