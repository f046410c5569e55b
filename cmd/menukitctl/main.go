// menukitctl is the developer utility for menukit: it validates menu
// definitions and inspects configuration and the OS theme state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"menukit/internal/config"
	"menukit/internal/theme"
	"menukit/pkg/menudef"
)

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "validate":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: menukitctl validate <menu.json|menu.yaml>")
			os.Exit(1)
		}
		cmdValidate(flag.Arg(1))
	case "theme":
		cmdTheme()
	case "config":
		cmdConfig()
	case "init":
		cmdInit()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `menukitctl - developer utility for menukit

Usage: menukitctl [options] <command> [args]

Commands:
  validate <file>   Validate a JSON or YAML menu definition
  theme             Print the current OS theme (light/dark)
  config            Print the effective configuration as JSON
  init              Write a default config file
  help              Show this help

Options:
  -config <path>    Path to a config file (default: platform config dir)`)
}

func cmdValidate(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("read %s: %v", path, err)
	}

	var def *menudef.Definition
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		def, err = menudef.ParseYAML(data)
	default:
		def, err = menudef.Parse(data)
	}
	if err != nil {
		fatal("%v", err)
	}
	if err := def.Validate(); err != nil {
		fatal("%v", err)
	}

	fmt.Printf("%s: valid (%d selectable items)\n", path, def.ItemCount())
}

func cmdTheme() {
	det := theme.NewDetector()
	dark, err := det.Dark()
	if err != nil {
		fatal("detect theme: %v", err)
	}
	if dark {
		fmt.Println("dark")
	} else {
		fmt.Println("light")
	}
}

func cmdConfig() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fatal("encode config: %v", err)
	}
	fmt.Println(string(out))
}

func cmdInit() {
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	_, created, err := config.LoadOrCreate(path)
	if err != nil {
		fatal("%v", err)
	}
	if created {
		fmt.Printf("wrote default config to %s\n", path)
	} else {
		fmt.Printf("config already exists at %s\n", path)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
