// Package compiler is the entry point of the template compiler. It runs
// the markup parser, the traversal and the code generator for one
// template, and wraps the render function into an AMD or UMD module.
package compiler

import (
	"context"
	"errors"
	"slices"

	"github.com/vcrobe/wml/codegen"
	"github.com/vcrobe/wml/diag"
	"github.com/vcrobe/wml/internal/ctxlog"
	"github.com/vcrobe/wml/markup"
	"github.com/vcrobe/wml/runtime"
	"github.com/vcrobe/wml/scope"
	"github.com/vcrobe/wml/traverse"
	"github.com/vcrobe/wml/wast"
)

// Compile compiles template text into module source. Module type and
// dependency conflicts fail with their own error types; every other
// problem is a *CompileError and no artifact is returned.
func Compile(ctx context.Context, text string, opts Options) (*Artifact, error) {
	logger := ctxlog.FromContext(ctx).With("file", opts.FileName)
	types, err := NormalizeModuleType(opts.ModuleType)
	if err != nil {
		return nil, err
	}
	logger.Debug("Compiling template.", "pipeline", opts.pipeline(), "module_types", types)

	res, err := Traverse(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	defer res.Scope.Release()

	ws := codegen.NewWorkspace(codegen.Options{
		InlineTranslations: opts.GenerateTranslations,
		WmlDialect:         opts.wasaby(),
	})
	fn, err := codegen.Generate(res.AST, ws)
	if err != nil {
		return nil, compileFailure(opts.FileName, nil, err)
	}

	art := &Artifact{Metadata: res.Metadata, Function: fn, Warnings: res.Warnings}
	parts := moduleParts{
		name:      moduleName(opts.FileName, opts.wasaby()),
		named:     opts.FromBuilderTmpl,
		i18n:      "i18n!" + res.Scope.Translations().Module(),
		refs:      res.Metadata.Dependencies.Refs,
		names:     res.Metadata.Dependencies.Names,
		preamble:  ws.Preamble(),
		function:  fn,
		reactive:  res.Metadata.ReactiveProps,
		wasaby:    opts.wasaby(),
		templates: opts.HasExternalInlineTemplates,
	}
	for _, t := range types {
		art.Sources = append(art.Sources, Source{Type: t, Text: parts.wrap(t)})
	}
	logger.Debug("Module emitted.", "bytes", len(art.Text()), "internal", len(ws.Internal()), "inline_templates", len(ws.Templates()))
	return art, nil
}

// Traverse parses and traverses template text, loads its dependencies
// through opts.Loader and annotates the tree. Loading is the only point
// where the compile waits on something outside itself.
func Traverse(ctx context.Context, text string, opts Options) (*Result, error) {
	res, err := traverseTemplate(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	if opts.Loader != nil {
		if res.Modules, err = loadDependencies(ctx, opts.Loader, res.Metadata.Dependencies.Refs); err != nil {
			return nil, err
		}
	}
	annotate(res, opts)
	return res, nil
}

// TraverseSync is Traverse without dependency loading.
func TraverseSync(text string, opts Options) (*Result, error) {
	res, err := traverseTemplate(context.Background(), text, opts)
	if err != nil {
		return nil, err
	}
	annotate(res, opts)
	return res, nil
}

// GetFunction traverses template text and returns its render procedure.
// Components and module partials render through the modules loaded by
// opts.Loader.
func GetFunction(ctx context.Context, text string, opts Options) (runtime.RenderFunc, *Result, error) {
	res, err := Traverse(ctx, text, opts)
	if err != nil {
		return nil, nil, err
	}
	r := runtime.New(res.AST, runtime.Options{Modules: res.Modules, Translate: opts.Translate})
	return r.Func(), res, nil
}

func traverseTemplate(ctx context.Context, text string, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("file", opts.FileName)

	mode := diag.ModeBatch
	if opts.Strict {
		mode = diag.ModeStrict
	}
	h := diag.NewHandler(opts.FileName, text, mode)

	nodes, err := markup.Parse(text, opts.FileName, markup.Config{
		AllowComments:          opts.Parser.AllowComments,
		RudeWhiteSpaceCleaning: opts.Parser.RudeWhiteSpaceCleaning,
		NormalizeLineFeed:      opts.Parser.NormalizeLineFeed,
		CleanWhiteSpaces:       opts.Parser.CleanWhiteSpaces,
		NeedPreprocess:         opts.Parser.NeedPreprocess,
		ErrorHandler:           h,
	})
	if err != nil || h.HasErrors() {
		return nil, compileFailure(opts.FileName, h, err)
	}
	logger.Debug("Template parsed.", "nodes", markup.Count(nodes))

	s := scope.New(opts.FileName)
	ast, err := traverse.Traverse(nodes,
		traverse.Config{ErrorHandler: h, AllowComments: opts.Parser.AllowComments},
		traverse.Options{
			FileName:         opts.FileName,
			Scope:            s,
			ReservedWords:    reservedWords(logger, opts.ReservedWords),
			IsWasabyTemplate: opts.IsWasabyTemplate,
			Translate:        true,
			Properties:       opts.ComponentsProperties,
		})
	var conflict *scope.ConflictError
	if errors.As(err, &conflict) {
		return nil, err
	}
	if err != nil || h.HasErrors() {
		return nil, compileFailure(opts.FileName, h, err)
	}

	refs, names := s.Dependencies().Get()
	logger.Debug("Template traversed.", "ast_nodes", wast.Count(ast), "dependencies", len(refs), "warnings", len(h.Warnings()))
	return &Result{
		FileName: opts.FileName,
		AST:      ast,
		Scope:    s,
		Metadata: Metadata{Dependencies: Dependencies{Refs: refs, Names: names}},
		Warnings: h.Warnings(),
	}, nil
}

// annotate fills the metadata. The codegen pipeline normalizes the tree
// first; the legacy one only collects translations.
func annotate(res *Result, opts Options) {
	m := &res.Metadata
	if opts.GenerateTranslations {
		var a traverse.Annotation
		a, res.AST = traverse.Annotate(res.AST, res.Scope)
		m.HasTranslations = a.HasTranslations
		m.TemplateNames = a.TemplateNames
		m.ReactiveProps = a.ReactiveProps
	} else {
		m.HasTranslations = traverse.CollectTranslations(res.AST, res.Scope) > 0
		m.TemplateNames = templateNames(res.AST)
		m.ReactiveProps = res.Scope.ReactiveProps()
	}
	m.LocalizedDictionary = res.Scope.Translations().Entries()
	if opts.HasExternalInlineTemplates {
		m.IncludedTemplates = slices.Clone(m.TemplateNames)
	}
}

func templateNames(ast []wast.Node) []string {
	var names []string
	wast.Walk(ast, func(n wast.Node) bool {
		if tpl, ok := n.(*wast.Template); ok {
			names = append(names, tpl.Name)
		}
		return true
	})
	return names
}
