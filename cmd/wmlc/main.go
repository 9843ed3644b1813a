// Command wmlc compiles wml and tmpl templates into AMD or UMD modules.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vcrobe/wml/compiler"
	"github.com/vcrobe/wml/internal/ctxlog"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run is the whole command: module text goes to outW unless -out is set,
// usage, logs and compile reports go to errW.
func run(outW, errW io.Writer, args []string) error {
	cfg, shouldExit, err := parseArgs(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	opts, err := loadOptions(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Dir != "" {
		files, err := compiler.CompileDir(ctx, cfg.Dir, opts)
		if err != nil {
			return report(errW, err)
		}
		logger.Info("Compilation finished.", "templates", len(files))
		return nil
	}

	src, err := os.ReadFile(cfg.In)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	opts.FileName = cfg.Name
	if opts.FileName == "" {
		opts.FileName = filepath.ToSlash(filepath.Clean(cfg.In))
	}

	art, err := compiler.Compile(ctx, string(src), opts)
	if err != nil {
		return report(errW, err)
	}
	for _, w := range art.Warnings {
		logger.Warn(w.Message, "file", w.File, "position", w.Pos.String())
	}

	if cfg.Out != "" {
		if err := os.WriteFile(cfg.Out, []byte(art.Text()), 0o644); err != nil {
			return fmt.Errorf("failed to write module: %w", err)
		}
	} else if _, err := io.WriteString(outW, art.Text()); err != nil {
		return err
	}

	if cfg.Meta != "" {
		meta, err := json.MarshalIndent(art.Metadata, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		if err := os.WriteFile(cfg.Meta, append(meta, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}
	return nil
}

func loadOptions(ctx context.Context, cfg *config) (compiler.Options, error) {
	var opts compiler.Options
	if cfg.ConfigPath != "" {
		var err error
		if opts, err = compiler.LoadOptions(ctx, cfg.ConfigPath); err != nil {
			return compiler.Options{}, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if cfg.ModuleType != "" {
		types := strings.Split(cfg.ModuleType, ",")
		if _, err := compiler.NormalizeModuleType(types); err != nil {
			return compiler.Options{}, &ExitError{Code: 2, Message: err.Error()}
		}
		opts.ModuleType = types
	}
	return opts, nil
}

// report prints every diagnostic of a failed compile with its excerpt and
// returns the error for the exit status.
func report(errW io.Writer, err error) error {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		fmt.Fprint(errW, compileErr.Report())
	}
	return err
}
