// Command housingctl runs one housing operation against the configured data:
// it loads the collections, logs the user in, performs the subcommand and
// saves on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"housingcore/internal/app"
	"housingcore/internal/config"
	"housingcore/internal/query"
	"housingcore/internal/session"
	"housingcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

type globalFlags struct {
	configPath string
	user       string
	password   string
	filter     map[string]string
	sortKey    string
	descending bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalFlags
	fs := pflag.NewFlagSet("housingctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&g.configPath, "config", "", "YAML config file (default $"+config.PathEnv+" or ./housing.yaml)")
	fs.StringVarP(&g.user, "user", "u", os.Getenv("HOUSING_USER"), "NRIC to log in as")
	fs.StringVarP(&g.password, "password", "p", os.Getenv("HOUSING_PASSWORD"), "password for --user")
	fs.StringToStringVar(&g.filter, "filter", nil, "project filter, e.g. neighbourhood=Yishun,flat_types=2-Room")
	fs.StringVar(&g.sortKey, "sort", string(query.SortByName), "project sort key: name, open_date, close_date, price")
	fs.BoolVar(&g.descending, "desc", false, "sort descending")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(stderr, fs)
		return 2
	}
	if len(rest)-1 < cmd.minArgs {
		fmt.Fprintf(stderr, "usage: housingctl %s %s\n", rest[0], cmd.args)
		return 2
	}

	cfg, err := loadConfig(g.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if cmd.offline != nil {
		if err := cmd.offline(ctx, *cfg, rest[1:], stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	a, err := app.New(ctx, *cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	code := 0
	if err := execute(ctx, a, g, cmd, rest[1:], stdout); err != nil {
		fmt.Fprintln(stderr, describe(err))
		code = 1
	}
	// Close saves whether or not the command succeeded.
	if err := a.Close(context.WithoutCancel(ctx)); err != nil {
		fmt.Fprintln(stderr, err)
		code = 1
	}
	return code
}

func execute(ctx context.Context, a *app.App, g globalFlags, cmd command, args []string, out io.Writer) error {
	if g.user == "" {
		return errors.New("--user is required")
	}
	if _, err := a.Session.Login(ctx, g.user, g.password); err != nil {
		return err
	}
	criteria, err := query.ParseCriteria(g.filter)
	if err != nil {
		return err
	}
	a.Session.SetFilter(criteria)
	key, err := query.ParseSortKey(g.sortKey)
	if err != nil {
		return err
	}
	dir := query.Ascending
	if g.descending {
		dir = query.Descending
	}
	a.Session.SetSort(session.Sort{Key: key, Direction: dir})
	if cmd.withPassword {
		args = append([]string{g.password}, args...)
	}
	return cmd.run(ctx, a, args, out)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(&config.Config{}, path, true)
}

// describe prefixes failures with their kind so scripts can match on it.
func describe(err error) string {
	if kind, ok := domain.KindOf(err); ok {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: housingctl [flags] <command> [args]")
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-22s %s\n", strings.TrimSpace(name+" "+c.args), c.help)
	}
}
