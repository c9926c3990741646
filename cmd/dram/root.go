package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/dram/internal/app"
	"github.com/five82/dram/internal/config"
)

const envPrefix = "DRAM"

// overrideKeys are read from flags and DRAM_* variables.
var overrideKeys = []string{
	config.KeyCatalog,
	config.KeyServiceURL,
	config.KeyRequestTimeout,
	config.KeyDefaultMaxPrice,
	config.KeyUnboundedPrice,
	config.KeyUnboundedValue,
	config.KeyLogLevel,
	config.KeyLogFormat,
	config.KeyLogFile,
	config.KeyMetricsAddr,
	config.KeyTheme,
}

type cli struct {
	v          *viper.Viper
	configPath string
	prefsPath  string
	envFile    string
	quiet      bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd() *cobra.Command {
	_, root := newCLI(os.Stdout, os.Stderr)
	return root
}

func newCLI(stdout, stderr io.Writer) (*cli, *cobra.Command) {
	c := &cli{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "dram",
		Short: "Find whiskeys similar to one you like",
		Long: `dram searches a whiskey catalog and asks a recommendation service for
similar bottles under a price ceiling. Run without a command to open the
interactive browser.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadEnv,
		RunE:              c.browse,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: ~/.config/dram/config.toml)")
	flags.StringVar(&c.prefsPath, "prefs", "", "preferences file (default: prefs.toml next to the config)")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file with DRAM_* variables")
	flags.String("catalog", "", "catalog CSV path or URL")
	flags.String("service-url", "", "recommendation service endpoint")
	flags.String("request-timeout", "", "recommendation request timeout, e.g. 5s")
	flags.String("unbounded-price", "", "wire form of an unbounded max price (infinity, null, omit, number)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	flags.String("log-file", "", "log file path")
	flags.String("metrics-addr", "", "serve /metrics and /healthz on this address while browsing")
	flags.String("theme", "", "color theme (Nightfox, Kanagawa, Slate)")

	for _, key := range overrideKeys {
		if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
			_ = c.v.BindPFlag(key, f)
		}
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.AutomaticEnv()

	root.AddCommand(
		c.browseCmd(),
		c.searchCmd(),
		c.recommendCmd(),
		versionCmd(),
	)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return c, root
}

// loadEnv reads the dotenv file. Variables already in the environment win.
func (c *cli) loadEnv(_ *cobra.Command, _ []string) error {
	if c.envFile == "" {
		return nil
	}
	if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}
	return nil
}

func (c *cli) overrides() map[string]string {
	out := make(map[string]string, len(overrideKeys))
	for _, key := range overrideKeys {
		if v := c.v.GetString(key); v != "" {
			out[key] = v
		}
	}
	return out
}

func (c *cli) options(withProgress bool) app.Options {
	opts := app.Options{
		ConfigPath: c.configPath,
		PrefsPath:  c.prefsPath,
		Overrides:  c.overrides(),
		Stdout:     c.stdout,
	}
	if withProgress && !c.quiet && isTerminal(c.stderr) {
		opts.Progress = progressBar(c.stderr)
	}
	return opts
}

func (c *cli) browse(cmd *cobra.Command, _ []string) error {
	return app.Browse(cmd.Context(), c.options(false))
}

func (c *cli) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser (default)",
		Args:  cobra.NoArgs,
		RunE:  c.browse,
	}
}

func (c *cli) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "List catalog entries whose names match the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Search(cmd.Context(), c.options(true), strings.Join(args, " "))
		},
	}
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "hide the download progress bar")
	return cmd
}

func (c *cli) recommendCmd() *cobra.Command {
	var (
		index    int
		maxPrice string
	)
	cmd := &cobra.Command{
		Use:   "recommend [name]",
		Short: "Print whiskeys similar to a catalog entry",
		Example: `  dram recommend "Lagavulin 16" --max-price 120
  dram recommend --index 42 --max-price unbounded`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ro := app.RecommendOptions{
				Index:    index,
				Name:     strings.Join(args, " "),
				MaxPrice: maxPrice,
			}
			if ro.Name == "" && index < 0 {
				return errors.New("recommend needs a whiskey name or --index")
			}
			return app.Recommend(cmd.Context(), c.options(true), ro)
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "catalog index as printed by search")
	cmd.Flags().StringVar(&maxPrice, "max-price", "", "price ceiling in dollars, or unbounded")
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "hide the download progress bar")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dram %s\n", version)
		},
	}
}

func progressBar(out io.Writer) func(total int64) io.Writer {
	return func(total int64) io.Writer {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("catalog"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
