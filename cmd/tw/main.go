package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tw/internal/cmdlog"
	"tw/internal/config"
	"tw/internal/logging"
	"tw/internal/metrics"
	"tw/internal/store/history"
	"tw/internal/xclient"
)

// Set with -ldflags "-X main.version=... -X main.revision=...".
var (
	version  = "0.4.0"
	revision = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	configPath  string
	profile     string
	credentials string
	debug       bool
	dump        bool

	cfg config.Config
	log zerolog.Logger
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tw",
		Short:         "Post, read and manage tweets from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultPath(), "path of the YAML config file")
	pf.StringVarP(&a.profile, "profile", "p", "", "credentials profile (default from config)")
	pf.StringVarP(&a.credentials, "credentials", "c", "", "path of the TOML credentials file")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging and HTTP dumps on stderr")
	pf.BoolVar(&a.dump, "dump", false, "write raw response bodies to the dump directory")

	root.AddCommand(
		newInitCmd(a),
		newMeCmd(a),
		newPostCmd(a),
		newDeleteCmd(a),
		newLikeCmd(a),
		newUnlikeCmd(a),
		newFeedCmd(a),
		newHomeCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
		newMCPCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", a.configPath, err)
	}
	if a.profile != "" {
		cfg.Profile = a.profile
	}
	if a.credentials != "" {
		cfg.CredentialsPath = a.credentials
	}
	cfg.CredentialsPath = config.ExpandPath(cfg.CredentialsPath)
	a.cfg = cfg
	a.log = logging.Setup(cmd.ErrOrStderr(), a.debug)
	return nil
}

// run wraps a command body with logging and metrics and writes the metrics
// textfile afterwards.
func (a *app) run(name string, f func() error) error {
	err := cmdlog.Run(name, f)
	if werr := metrics.Default.WriteTextfile(a.cfg.Output.MetricsTextfile); werr != nil {
		a.log.Warn().Err(werr).Str("path", a.cfg.Output.MetricsTextfile).Msg("metrics textfile write failed")
	}
	return err
}

func (a *app) loadProfile() (config.Profile, error) {
	return config.LoadProfile(a.cfg.CredentialsPath, a.cfg.Profile)
}

func (a *app) client(p config.Profile) (*xclient.Client, error) {
	opts := []xclient.Option{
		xclient.WithBaseURL(a.cfg.API.BaseURL),
		xclient.WithTimeout(a.cfg.API.Timeout),
		xclient.WithRateLimiter(xclient.NewLimiter(a.cfg.API.RPS, a.cfg.API.Burst)),
		xclient.WithDebug(a.debug),
		xclient.WithLogger(a.log),
		xclient.WithMetrics(metrics.Default),
	}
	if a.dump {
		opts = append(opts, xclient.WithDumpDir(config.ExpandPath(a.cfg.Output.DumpDir)))
	}
	return xclient.New(p.Credentials(), opts...)
}

// session loads the active profile and builds a client for it.
func (a *app) session() (config.Profile, *xclient.Client, error) {
	p, err := a.loadProfile()
	if err != nil {
		return p, nil, err
	}
	c, err := a.client(p)
	return p, c, err
}

func (a *app) openHistory() (*history.DB, error) {
	return history.Open(config.ExpandPath(a.cfg.Storage.HistoryDB))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
