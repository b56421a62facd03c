// Package cli is the ledger command line. Each invocation loads the
// configuration, opens the database, runs one command and closes it again.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/config"
	"github.com/sakif/ledger/internal/export"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/render"
	sqliteRepo "github.com/sakif/ledger/internal/repository/sqlite"
	"github.com/sakif/ledger/internal/service"
)

// app carries what every command needs once the root command's pre-run
// hook has loaded the configuration.
type app struct {
	out    io.Writer
	errOut io.Writer

	configFile string
	envFile    string

	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
	render *render.Renderer
	csv    export.CSVWriter

	db         *sqliteRepo.DB
	ledger     *service.LedgerService
	snapshots  *service.SnapshotService
	comparator *service.Comparator
}

// NewRootCommand builds the full command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	root, _ := newRoot(out, errOut)
	return root
}

func newRoot(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "ledger",
		Short: "A versioned personal-finance ledger",
		Long: `ledger keeps a balance sheet and a budget as versioned items.
Every change moves a logical clock forward, so any past state can be rebuilt,
snapshotted and compared side by side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./ledger.yaml or $HOME/.ledger/ledger.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.String("db", "", "path to the SQLite database")
	pf.String("owner", "", "owner the ledger belongs to")
	pf.StringP("book", "b", "", "book to work on: balance or budget")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Bool("plain", false, "print markdown instead of terminal formatting")

	root.AddCommand(
		a.initCommand(),
		a.categoryCommand(),
		a.itemCommand(),
		a.viewCommand(),
		a.snapshotCommand(),
		a.compareCommand(),
		a.exportCommand(),
		a.tokenCommand(),
		a.serveCommand(),
	)
	return root, a
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"db":        "db.path",
	"owner":     "owner",
	"book":      "book",
	"log-level": "log.level",
	"plain":     "render.plain",
}

func (a *app) load(cmd *cobra.Command) error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return fmt.Errorf("loading %s: %w", a.envFile, err)
	}

	a.v = config.New(a.configFile)
	for flag, key := range flagKeys {
		f := cmd.Root().PersistentFlags().Lookup(flag)
		// Unset flags must not shadow the file and the environment.
		if f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(a.errOut)
	a.csv = export.CSVWriter{Comma: cfg.Delimiter()}

	a.render, err = render.New(cfg.Currency, cfg.Render.Width, cfg.Render.Plain)
	return err
}

// open connects to the database and builds the services. Commands that
// touch the ledger call it first.
func (a *app) open(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	if err := a.ensureDBDir(); err != nil {
		return err
	}

	db, err := sqliteRepo.New(ctx, a.cfg.DB.Path, a.logger)
	if err != nil {
		return apperror.Storage("opening "+a.cfg.DB.Path, err)
	}
	a.db = db

	clock := service.NewClock(db)
	a.ledger = service.NewLedgerService(db, clock, a.logger, service.WithMaxItemName(a.cfg.Ledger.MaxItemName))
	a.snapshots = service.NewSnapshotService(db, clock, a.ledger, a.logger)
	a.comparator = service.NewComparator(db, a.logger)
	return nil
}

// ensureDBDir creates the directory holding the database file.
func (a *app) ensureDBDir() error {
	path := a.cfg.DB.Path
	if path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// owner returns the configured owner key.
func (a *app) owner() (string, error) {
	key := model.Key(a.cfg.Owner)
	if key == "" {
		return "", apperror.ValidationFailed("owner", "no owner set: pass --owner or set LEDGER_OWNER")
	}
	return key, nil
}

// book returns the configured book, or the balance book by default.
func (a *app) book() model.Book {
	return a.cfg.BookName()
}

// print renders md for the terminal and writes it out.
func (a *app) print(md string) error {
	out, err := a.render.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, out)
	return err
}

// writeTo runs write against path, or against the command's output when
// path is "-" or empty.
func (a *app) writeTo(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(a.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	a.logger.Info("file written", slog.String("path", path))
	return nil
}
