package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Commands carrying this annotation run without loading config or stores.
const skipWiringAnnotation = "mlr.skip-wiring"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "mlr",
		Short:         "Mercado Livre relist CLI (mlr): linked seller accounts and fee-aware pricing",
		Long:          "mlr links Mercado Livre seller accounts, keeps their OAuth tokens fresh, and quotes listing prices that net a target profit after marketplace fees and free-shipping subsidies.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWiringAnnotation] == "true" {
				return nil
			}
			return app.wire(v, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newTokenCmd(app),
		newQuoteCmd(app),
	)

	return rootCmd
}

// initLogger builds the process logger. Logs go to stderr so stdout stays
// parseable when --json is used.
func initLogger(w io.Writer, format string, levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
