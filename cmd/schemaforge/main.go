package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/builder"
	"github.com/reoring/schemaforge/connector"
	"github.com/reoring/schemaforge/connector/celrule"
	"github.com/reoring/schemaforge/connector/rediscache"
	"github.com/reoring/schemaforge/i18n"
	"github.com/reoring/schemaforge/loader"
)

// errIssues marks a run that completed but found validation issues.
var errIssues = errors.New("validation failed")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "validate":
		err = validateCmd(context.Background(), os.Args[2:], os.Stdin, os.Stdout)
	case "export":
		err = exportCmd(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	switch {
	case errors.Is(err, errIssues):
		os.Exit(1)
	case err != nil:
		fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "schemaforge CLI\n\nUsage:\n"+
		"  schemaforge validate -schema base.yml[,overlay.yml] -input data.json [-rules rules.yml] [-redis redis://host:6379] [-lang en|ja] [-v]\n"+
		"  schemaforge export -schema base.yml[,overlay.yml] [-private] [-o out.json]\n\n"+
		"Notes:\n"+
		"  - Schemas are merged left to right.\n"+
		"  - validate prints the issues as JSON and exits with status 1 when there are any.")
}

func validateCmd(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemasCSV, input, rules, redisURL, lang string
	var verbose bool
	fs.StringVar(&schemasCSV, "schema", "", "comma-separated schema files (.yml, .yaml, .json)")
	fs.StringVar(&input, "input", "-", "JSON document to validate, - for stdin")
	fs.StringVar(&rules, "rules", "", "YAML file with CEL validator rules")
	fs.StringVar(&redisURL, "redis", "", "Redis URL for caching source schemas")
	fs.StringVar(&lang, "lang", "en", "message language (en, ja)")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if schemasCSV == "" {
		fs.Usage()
		os.Exit(2)
	}

	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	b, err := loadSchemas(splitCSV(schemasCSV), log)
	if err != nil {
		return err
	}
	schema, err := b.Schema()
	if err != nil {
		return err
	}

	doc, err := readInput(input, stdin)
	if err != nil {
		return err
	}

	router := connector.NewRouter()
	if rules != "" {
		if err := mountRules(router, rules); err != nil {
			return err
		}
	}
	var conn schemaforge.Connector = router
	if redisURL != "" {
		rdb, err := rediscache.Dial(ctx, redisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		conn = rediscache.New(conn, rdb, rediscache.Options{Logger: log})
	}
	reg := prometheus.NewRegistry()
	conn, err = connector.Instrument(conn, reg)
	if err != nil {
		return err
	}

	tr := i18n.English()
	if lang == "ja" {
		tr = i18n.Japanese()
	}
	iss := schema.Validate(ctx, doc, conn, schemaforge.ValidateOpt{Logger: log, Translator: tr})
	logCalls(log, reg)

	if iss == nil {
		iss = schemaforge.Issues{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(iss); err != nil {
		return err
	}
	if len(iss) > 0 {
		return errIssues
	}
	return nil
}

func exportCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var schemasCSV, out string
	var private bool
	fs.StringVar(&schemasCSV, "schema", "", "comma-separated schema files (.yml, .yaml, .json)")
	fs.BoolVar(&private, "private", false, "keep variables and per-property required flags")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	_ = fs.Parse(args)
	if schemasCSV == "" {
		fs.Usage()
		os.Exit(2)
	}

	b, err := loadSchemas(splitCSV(schemasCSV), zap.NewNop())
	if err != nil {
		return err
	}
	doc, err := b.Generate(!private)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return os.WriteFile(out, data, 0o644)
}

func loadSchemas(paths []string, log *zap.Logger) (*builder.Builder, error) {
	b := builder.New(strings.Join(paths, ","), builder.WithLogger(log))
	for _, p := range paths {
		cfg, err := loader.FromFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		b.AddConfig(cfg)
	}
	return b, nil
}

func mountRules(r *connector.Router, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	specs, err := celrule.ReadSpecs(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return celrule.Register(r, specs)
}

func readInput(path string, stdin io.Reader) (any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return doc, nil
}

func logCalls(log *zap.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		log.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				fields := []zap.Field{zap.String("metric", mf.GetName()), zap.Float64("value", c.GetValue())}
				for _, lp := range m.GetLabel() {
					fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
				}
				log.Debug("connector calls", fields...)
			}
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
