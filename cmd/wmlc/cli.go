package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// config is the parsed command line.
type config struct {
	In         string
	Dir        string
	Name       string
	ConfigPath string
	Out        string
	Meta       string
	ModuleType string
	LogLevel   string
	LogFormat  string
}

// parseArgs processes command-line arguments. The boolean result tells
// the caller to exit cleanly, after help was printed.
func parseArgs(args []string, output io.Writer) (*config, bool, error) {
	flagSet := flag.NewFlagSet("wmlc", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
wmlc - compiles wml and tmpl templates into JavaScript modules.

Usage:
  wmlc -in Controls/Button.wml [-out Button.js] [-meta Button.json]
  wmlc -dir src [-config wml.hcl]

Options:
`)
		flagSet.PrintDefaults()
	}

	cfg := &config{}
	flagSet.StringVar(&cfg.In, "in", "", "Template file to compile.")
	flagSet.StringVar(&cfg.Dir, "dir", "", "Directory whose templates are all compiled next to their sources.")
	flagSet.StringVar(&cfg.Name, "name", "", "Template name used for the module and translations. Defaults to the -in path.")
	flagSet.StringVar(&cfg.ConfigPath, "config", "", "HCL file with compile options.")
	flagSet.StringVar(&cfg.Out, "out", "", "Output file for the module. Defaults to standard output.")
	flagSet.StringVar(&cfg.Meta, "meta", "", "Output file for the metadata JSON.")
	flagSet.StringVar(&cfg.ModuleType, "module-type", "", "Comma-separated module types, 'amd' or 'umd'. Overrides the config file.")
	flagSet.StringVar(&cfg.LogLevel, "log-level", "warn", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&cfg.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg.In == "" && flagSet.NArg() > 0 {
		cfg.In = flagSet.Arg(0)
	}

	switch {
	case cfg.In == "" && cfg.Dir == "":
		flagSet.Usage()
		return nil, true, nil
	case cfg.In != "" && cfg.Dir != "":
		return nil, false, &ExitError{Code: 2, Message: "-in and -dir cannot be used together"}
	case cfg.Dir != "" && (cfg.Out != "" || cfg.Meta != "" || cfg.Name != ""):
		return nil, false, &ExitError{Code: 2, Message: "-out, -meta and -name apply to -in only"}
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return cfg, false, nil
}
