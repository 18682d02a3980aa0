package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/joeshaw/envdecode"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/config"
)

// settings are read from the environment.
type settings struct {
	// Indent is the number of spaces per JSON nesting level. ENV: JSONCONF_INDENT
	Indent int `env:"JSONCONF_INDENT,default=2"`
	// LogLevel is one of debug, info, warn, error. ENV: JSONCONF_LOG_LEVEL
	LogLevel string `env:"JSONCONF_LOG_LEVEL,default=info"`
}

func loadSettings() (settings, error) {
	var s settings
	if err := envdecode.Decode(&s); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return s, err
	}
	return s, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	s, err := loadSettings()
	if err != nil {
		fmt.Fprintf(stderr, "settings: %v\n", err)
		return 2
	}
	log := newLogger(stderr, s.LogLevel)

	switch args[0] {
	case "schema":
		return schemaCmd(args[1:], s, log, stdout, stderr)
	case "validate":
		return validateCmd(args[1:], log, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "jsonconf CLI\n\nUsage:\n  jsonconf schema -decl types.json [-type Name] [-yaml]\n  jsonconf validate -decl types.json [-type Name] [-no-duplicate-keys] file...\n\nNotes:\n  - Declaration files hold one type declaration or an array of them; the last one is used unless -type is given.\n  - Files ending in .yaml or .yml are read as YAML.")
}

func schemaCmd(args []string, s settings, log *slog.Logger, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var decl, typeName string
	var asYAML bool
	fs.StringVar(&decl, "decl", "", "type declaration file (JSON or YAML)")
	fs.StringVar(&typeName, "type", "", "type to print (default: last declared)")
	fs.BoolVar(&asYAML, "yaml", false, "print YAML instead of JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if decl == "" {
		fs.Usage()
		return 2
	}
	t, err := loadType(decl, typeName)
	if err != nil {
		log.Error("load declarations", "path", decl, "err", err)
		return 1
	}
	log.Debug("derived schema", "type", t.Name(), "properties", len(t.Properties()))

	s2, err := t.Validator().CloneJSONSchema()
	if err != nil {
		log.Error("clone schema", "type", t.Name(), "err", err)
		return 1
	}
	b, err := gojson.Marshal(s2)
	if err != nil {
		log.Error("encode schema", "err", err)
		return 1
	}
	doc, err := jsonconf.ParseJSONString(string(b))
	if err != nil {
		log.Error("encode schema", "err", err)
		return 1
	}
	if asYAML {
		err = jsonconf.EncodeYAML(stdout, doc)
	} else {
		err = jsonconf.EncodeJSON(stdout, doc, strings.Repeat(" ", max(s.Indent, 0)))
	}
	if err != nil {
		log.Error("write schema", "err", err)
		return 1
	}
	return 0
}

func validateCmd(args []string, log *slog.Logger, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var decl, typeName string
	var noDup bool
	fs.StringVar(&decl, "decl", "", "type declaration file (JSON or YAML)")
	fs.StringVar(&typeName, "type", "", "type to validate against (default: last declared)")
	fs.BoolVar(&noDup, "no-duplicate-keys", false, "reject JSON files that repeat an object key")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if decl == "" || fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	t, err := loadType(decl, typeName)
	if err != nil {
		log.Error("load declarations", "path", decl, "err", err)
		return 1
	}
	failed := 0
	for _, path := range fs.Args() {
		var err error
		switch {
		case isYAML(path):
			_, err = t.LoadFromYAMLFile(path)
		case noDup:
			if err = checkDuplicateKeys(path); err == nil {
				_, err = t.LoadFromJSONFile(path)
			}
		default:
			_, err = t.LoadFromJSONFile(path)
		}
		if err != nil {
			failed++
			log.Error("invalid", "path", path, "type", t.Name(), "err", err)
			continue
		}
		log.Info("valid", "path", path, "type", t.Name())
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func loadType(path, typeName string) (*config.Type, error) {
	decode := jsonconf.DecodeJSON
	if isYAML(path) {
		decode = jsonconf.DecodeYAML
	}
	raw, err := jsonconf.ReadFile(path, decode)
	if err != nil {
		return nil, err
	}
	decls, err := config.ParseDeclarations(raw)
	if err != nil {
		return nil, err
	}
	reg, err := config.BuildAll(decls)
	if err != nil {
		return nil, err
	}
	if typeName == "" {
		if t := reg.Last(); t != nil {
			return t, nil
		}
		return nil, fmt.Errorf("%s declares no types", path)
	}
	t, ok := reg.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("type '%s' not declared in %s", typeName, path)
	}
	return t, nil
}

func checkDuplicateKeys(path string) error {
	_, err := jsonconf.ReadFile(path, func(r io.Reader) (any, error) {
		iss, err := jsonconf.DuplicateKeys(r, 0)
		if err != nil {
			return nil, err
		}
		if len(iss) > 0 {
			return nil, iss
		}
		return nil, nil
	})
	return err
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
