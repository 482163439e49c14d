package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/specialistvlad/flowgridgo/internal/app"
	"github.com/specialistvlad/flowgridgo/internal/hcl"
)

// envPrefix namespaces the environment variables the CLI reads, e.g.
// FLOWGRID_LOG_LEVEL overrides --log-level.
const envPrefix = "FLOWGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Execute builds the command tree, parses args, and runs the selected
// command. It is the testable entry point behind main.
func Execute(ctx context.Context, args []string, outW io.Writer) error {
	cmd := newRootCmd(outW)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// newRootCmd creates and configures the root command together with a fresh
// viper instance, so parallel tests never share flag state.
func newRootCmd(outW io.Writer) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "flowgrid",
		Short: "flowgrid is a declarative scheduled-workflow runner.",
		Long: `Flowgrid runs HCL-defined workflows on cron schedules or on demand.
A flow declares its trigger, the secrets it needs, and a series of steps;
the daemon resolves secrets, builds the dependency graph, and executes it.

Configuration resolves flags first, then FLOWGRID_* environment variables,
then defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(outW)

	cmd.PersistentFlags().StringP("flows", "f", "flows", "Path to a flow .hcl file or a directory of them.")
	cmd.PersistentFlags().String("modules", "", "Path to extra definition files.")
	cmd.PersistentFlags().String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	cmd.PersistentFlags().String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	cmd.PersistentFlags().Int("workers", 10, "Number of concurrent workers for the executor.")
	cmd.PersistentFlags().Int("api-port", 8080, "Port for the control and health API in serve mode. 0 disables it.")
	cmd.PersistentFlags().String("history-dsn", "", "Run history backend, e.g. sqlite://flowgrid.db or a postgres:// URL.")
	cmd.PersistentFlags().String("env-file", "", "Dotenv file consulted for secrets after the process environment.")

	for _, key := range []string{"flows", "modules", "log-format", "log-level", "workers", "api-port", "history-dsn", "env-file"} {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(key))
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(
		newRunCmd(v),
		newServeCmd(v),
		newValidateCmd(v),
		newFlowsCmd(v),
		newSecretsCmd(v),
		newHistoryCmd(v),
		newImportCmd(),
		newVersionCmd(),
	)
	return cmd
}

// newApp validates the resolved configuration and constructs the application.
// Startup failures inside app.NewApp panic and are recovered in main.
func newApp(v *viper.Viper, outW io.Writer) (*app.App, error) {
	logFormat := strings.ToLower(v.GetString("log-format"))
	if logFormat != "text" && logFormat != "json" {
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(v.GetString("log-level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := app.NewConfig(app.Config{
		FlowsPath:   v.GetString("flows"),
		ModulesPath: v.GetString("modules"),
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: v.GetInt("workers"),
		APIPort:     v.GetInt("api-port"),
		HistoryDSN:  v.GetString("history-dsn"),
		EnvFile:     v.GetString("env-file"),
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return app.NewApp(outW, cfg, hcl.NewLoader()), nil
}
