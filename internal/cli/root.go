// Package cli implements the lither command line.
package cli

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/output"
)

var version = "0.1.0"

// settings are the global flags after environment overrides.
type settings struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Output  output.OutputFormat
	Verbose bool
	NoColor bool
	Debug   bool
}

// app carries what every subcommand shares.
type app struct {
	v      *viper.Viper
	logger *logrus.Logger
}

// NewRootCmd builds the command tree. Global flags can also be set through
// LITHER_* environment variables, e.g. LITHER_BASE_URL.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LITHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	a := &app{v: v, logger: logrus.New()}

	root := &cobra.Command{
		Use:     "lither",
		Short:   "An ergonomic HTTP client for the terminal",
		Version: version,
		Long: `Lither issues HTTP calls with path parameters, query maps, JSON bodies,
timeouts and bearer auth, and runs request collections with extraction
and response checks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.String("base-url", "", "Base URL for relative request URLs (env LITHER_BASE_URL)")
	pf.String("token", "", "Bearer token sent as Authorization (env LITHER_TOKEN)")
	pf.DurationP("timeout", "t", 30*time.Second, "Request timeout (env LITHER_TIMEOUT)")
	pf.StringP("output", "o", "text", "Output format: text, json or yaml")
	pf.BoolP("verbose", "v", false, "Enable verbose output")
	pf.Bool("no-color", false, "Disable colored output")
	pf.Bool("debug", false, "Enable debug logging")
	if err := v.BindPFlags(pf); err != nil {
		panic(err)
	}

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"} {
		root.AddCommand(newVerbCmd(a, method))
	}
	root.AddCommand(newRunCmd(a))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	a.logger.SetLevel(logrus.WarnLevel)
	if a.v.GetBool("debug") {
		a.logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

func (a *app) settings() (settings, error) {
	format, err := output.ParseFormat(a.v.GetString("output"))
	if err != nil {
		return settings{}, err
	}
	return settings{
		BaseURL: a.v.GetString("base-url"),
		Token:   a.v.GetString("token"),
		Timeout: a.v.GetDuration("timeout"),
		Output:  format,
		Verbose: a.v.GetBool("verbose"),
		NoColor: a.v.GetBool("no-color"),
		Debug:   a.v.GetBool("debug"),
	}, nil
}

// isSet reports whether a global flag was given on the command line or
// through the environment.
func (a *app) isSet(key string) bool {
	return a.v.IsSet(key)
}

func (a *app) formatter(s settings) output.FormatProvider {
	noColor := !output.UseColor(s.NoColor, os.Stdout)
	return output.GetFormatter(s.Output, s.Verbose, noColor)
}

// newClient builds a client whose calls always resolve with the normalized
// response, so commands can print non-2xx outcomes too.
func (a *app) newClient(options ...lhttp.ClientOption) *lhttp.Client {
	base := []lhttp.ClientOption{
		lhttp.WithLogger(a.logger),
		lhttp.WithAfterResponse(resolveResponse),
	}
	return lhttp.NewClient(append(base, options...)...)
}

func resolveResponse(resp *lhttp.Response, s lhttp.Settler) {
	s.Resolve(resp)
}
