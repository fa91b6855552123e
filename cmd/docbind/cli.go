package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/docbind/config"
	"github.com/arthur-debert/docbind/docbind/store"
	"github.com/arthur-debert/docbind/formats"
	"github.com/arthur-debert/docbind/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CLI is the docbind command tree with its Viper configuration and the
// store opened for the running command.
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	out       io.Writer

	// configFile is the explicit config file from DOCBIND_CONFIG
	configFile string

	cfg    config.Config
	logger *zap.Logger
	store  types.Store
	format *formats.OutputFormat
}

// NewCLI creates the command tree reading from in and printing to out and errOut.
func NewCLI(in io.Reader, out, errOut io.Writer) *CLI {
	cli := &CLI{
		viperInst: viper.New(),
		out:       out,
		logger:    zap.NewNop(),
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.rootCmd.SetIn(in)
	cli.rootCmd.SetOut(out)
	cli.rootCmd.SetErr(errOut)
	cli.addCommands()

	return cli
}

// Execute runs the command selected by the process arguments and closes
// the store whatever the outcome.
func (cli *CLI) Execute() error {
	err := cli.rootCmd.Execute()
	if closeErr := cli.teardown(); err == nil {
		err = closeErr
	}
	return err
}

// setupViperConfig configures Viper with defaults, environment variables
// and config file discovery
func (cli *CLI) setupViperConfig() {
	// DOCBIND_CONFIG names a config file explicitly
	if configFile := os.Getenv("DOCBIND_CONFIG"); configFile != "" {
		cli.configFile = configFile
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName(".docbind")
		cli.viperInst.SetConfigType("yaml")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME")
	}

	defaults := config.Default()
	cli.viperInst.SetDefault("store.driver", defaults.Store.Driver)
	cli.viperInst.SetDefault("store.path", defaults.Store.Path)
	cli.viperInst.SetDefault("store.uri", defaults.Store.URI)
	cli.viperInst.SetDefault("store.database", defaults.Store.Database)
	cli.viperInst.SetDefault("log.level", defaults.Log.Level)
	cli.viperInst.SetDefault("log.verbose", defaults.Log.Verbose)
	cli.viperInst.SetDefault("format", formats.Table.Name)

	// DOCBIND_STORE_PATH overrides store.path, DOCBIND_LOG_LEVEL log.level
	cli.viperInst.SetEnvPrefix("DOCBIND")
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	cli.viperInst.AutomaticEnv()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "docbind",
		Short: "Inspect and edit documents in a docbind store",
		Long: `docbind reads and writes raw documents of a docbind store.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (DOCBIND_*)
3. Configuration file (DOCBIND_CONFIG, ./.docbind.yaml or ~/.docbind.yaml)
4. Defaults (json driver on ./docbind.json)

Examples:
  docbind put authors/herbert --set name="Frank Herbert" --set born=1920
  docbind add books --set title=Dune --set "author=ref(authors/herbert)"
  docbind query books --where "pages:>:300" --order pages:desc --limit 10
  docbind search books dune --field title --highlight
  docbind --format json get books/dune`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd)
		},
	}

	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags that apply to all commands
func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	// Store selection
	flags.String("driver", "", "store driver ("+strings.Join(config.Drivers, "|")+")")
	flags.StringP("path", "p", "", "data file of the json driver")
	flags.String("uri", "", "connection URI of the mongo driver")
	flags.String("database", "", "database of the mongo driver")

	// Output and logging
	flags.StringP("format", "f", "", "output format ("+strings.Join(formats.List(), "|")+")")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "log at debug level in development format")

	bindings := map[string]string{
		"store.driver":   "driver",
		"store.path":     "path",
		"store.uri":      "uri",
		"store.database": "database",
		"format":         "format",
		"log.level":      "log-level",
		"log.verbose":    "verbose",
	}
	for key, flag := range bindings {
		_ = cli.viperInst.BindPFlag(key, flags.Lookup(flag))
	}
}

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newGetCommand(),
		cli.newQueryCommand(),
		cli.newPutCommand(),
		cli.newAddCommand(),
		cli.newSearchCommand(),
	)
}

// loadConfig merges the config file, environment and flags into a Config.
func (cli *CLI) loadConfig() (config.Config, error) {
	// An explicit config file must exist; discovered ones are optional
	if cli.configFile != "" {
		if _, err := os.Stat(cli.configFile); err != nil {
			return config.Config{}, NewConfigError("load configuration", err.Error(),
				"Check the DOCBIND_CONFIG environment variable")
		}
	}
	if err := cli.viperInst.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Config{}, NewConfigError("load configuration", err.Error(),
				CommonSuggestions.CheckConfig)
		}
	}

	var cfg config.Config
	if err := cli.viperInst.Unmarshal(&cfg); err != nil {
		return cfg, NewConfigError("load configuration", err.Error(), CommonSuggestions.CheckConfig)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, NewConfigError("load configuration", err.Error(),
			CommonSuggestions.CheckConfig, CommonSuggestions.CheckFlags)
	}
	return cfg, nil
}

// setup loads the configuration, builds the logger and opens the store.
func (cli *CLI) setup(cmd *cobra.Command) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	cli.cfg = cfg

	formatName := cli.viperInst.GetString("format")
	format, err := formats.Get(formatName)
	if err != nil {
		return NewValidationError("select output", "format", formatName,
			"Available formats: "+strings.Join(formats.List(), ", "))
	}
	cli.format = format

	logger, err := cfg.NewLogger()
	if err != nil {
		return NewConfigError("initialize logging", err.Error(), CommonSuggestions.CheckConfig)
	}
	cli.logger = logger.Named("cli")

	s, err := store.Open(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return NewStoreError("open store", err, CommonSuggestions.CheckStore)
	}
	cli.store = s
	cli.logger.Debug("store opened",
		zap.String("command", cmd.Name()),
		zap.String("driver", cfg.Store.Driver))
	return nil
}

// teardown closes the store and flushes the logger. It is safe to call
// when setup never ran.
func (cli *CLI) teardown() error {
	var err error
	if cli.store != nil {
		err = cli.store.Close()
		cli.store = nil
	}
	_ = cli.logger.Sync()
	return err
}

// render prints snapshots in the selected output format.
func (cli *CLI) render(snaps ...types.Snapshot) error {
	rows := make([]formats.Row, len(snaps))
	for i, snap := range snaps {
		rows[i] = formats.Row{Path: snap.Ref.Path, Data: snap.Data}
	}
	return cli.format.Render(cli.out, rows)
}
