// Command housing-check loads the configured housing data and reports rows the
// loader drops plus rule violations over what remains.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"housingcore/internal/config"
	"housingcore/internal/core"
	"housingcore/internal/storage"
	"housingcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("housing-check", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default $"+config.PathEnv+" or ./housing.yaml)")
	strict := fs.Bool("strict", false, "fail on warnings as well as errors")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Data validation failed: %v\n", err)
		return 1
	}
	rep, err := check(ctx, *cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Data validation failed: %v\n", err)
		return 1
	}
	rep.write(stdout)
	if rep.failed(*strict) {
		fmt.Fprintf(stderr, "Data validation failed: %d error(s), %d warning(s)\n", rep.errors, rep.warnings)
		return 1
	}
	fmt.Fprintln(stdout, "Data validation passed.")
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(&config.Config{}, path, true)
}

type finding struct {
	level   string
	source  string
	message string
}

type report struct {
	findings []finding
	errors   int
	warnings int
}

func (r *report) add(level, source, message string) {
	r.findings = append(r.findings, finding{level: level, source: source, message: message})
	if level == "ERROR" {
		r.errors++
	} else {
		r.warnings++
	}
}

func (r report) failed(strict bool) bool {
	return r.errors > 0 || (strict && r.warnings > 0)
}

func (r report) write(w io.Writer) {
	for _, f := range r.findings {
		fmt.Fprintf(w, "%-5s %-20s %s\n", f.level, f.source, f.message)
	}
}

// check loads through the configured backend. Unreadable collections and rows
// the loader drops surface as errors; rule violations over whatever loaded keep
// their severity.
func check(ctx context.Context, cfg config.Config) (report, error) {
	drops := &dropHandler{}
	backend, err := storage.Open(ctx, cfg, slog.New(drops))
	if err != nil {
		return report{}, err
	}
	if c, ok := backend.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	seq := domain.NewSequencer()
	graph, loadErr := backend.Load(ctx, seq)
	var rep report
	if loadErr != nil {
		rep.add("ERROR", "load", loadErr.Error())
	}
	for _, d := range drops.records() {
		rep.add("ERROR", "load", d)
	}
	store := core.NewMemoryStore(core.NewDefaultRulesEngine(), seq)
	store.ImportGraph(graph)
	res, err := store.Audit(ctx)
	if err != nil {
		return report{}, err
	}
	for _, v := range res.Violations {
		level := "WARN"
		if v.Severity == domain.SeverityBlock {
			level = "ERROR"
		}
		rep.add(level, v.Rule, fmt.Sprintf("%s %s: %s", v.Entity, v.EntityID, v.Message))
	}
	return rep, nil
}

// dropHandler collects warn-and-above records as single lines.
type dropHandler struct {
	mu    sync.Mutex
	lines []string
}

func (h *dropHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= slog.LevelWarn }

func (h *dropHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	h.mu.Lock()
	h.lines = append(h.lines, b.String())
	h.mu.Unlock()
	return nil
}

func (h *dropHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *dropHandler) WithGroup(string) slog.Handler { return h }

func (h *dropHandler) records() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}
