package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/scope"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	client      string
	server      string
	kubeconfig  string
	namespace   string
	token       string
	timeout     time.Duration
	debug       bool
	metricsAddr string

	// executor replaces the local client runner. Only set by tests.
	executor scope.Executor
}

var globals = &globalOptions{}

// rootCmd represents the base command for the kubedriver application.
var rootCmd = &cobra.Command{
	Use:   "kubedriver",
	Short: "Drive Kubernetes and OpenShift clusters through their CLI client",
	Long: `kubedriver selects, observes and mutates cluster resources by driving an
external control-plane client binary such as oc or kubectl.

Connection settings come from the flags below, then from KUBEDRIVER_*
environment variables, then from the current kubeconfig context.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application. Cancelling ctx
// stops in-flight client invocations and polls.
// This function is called by main.main().
func Execute(ctx context.Context) {
	rootCmd.SetVersionTemplate(`{{printf "kubedriver version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd, globals)

	rootCmd.AddCommand(newVersionCmd(globals))
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newGetCmd(globals))
	rootCmd.AddCommand(newWaitCmd(globals))
	rootCmd.AddCommand(newLabelCmd(globals))
	rootCmd.AddCommand(newDescribeCmd(globals))
	rootCmd.AddCommand(newAPIResourcesCmd(globals))
}

func addGlobalFlags(cmd *cobra.Command, o *globalOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.client, "client", "", "Client binary to run (default from KUBEDRIVER_CLIENT_PATH, then oc)")
	flags.StringVar(&o.server, "server", "", "API server URL; insecure:// skips TLS verification")
	flags.StringVar(&o.kubeconfig, "kubeconfig", "", "Path to the kubeconfig file")
	flags.StringVarP(&o.namespace, "namespace", "n", "", "Namespace to operate in")
	flags.StringVar(&o.token, "token", "", "Bearer token for the API server")
	flags.DurationVar(&o.timeout, "timeout", 0, "Overall deadline for the command, e.g. 5m (0 means none)")
	flags.BoolVar(&o.debug, "debug", false, "Log every client invocation")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs, e.g. :9090")
}

func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// scope returns a context carrying a root scope built from the flags and the
// environment. The returned function releases it and must always be called.
func (o *globalOptions) scope(cmd *cobra.Command) (context.Context, func(), error) {
	logger := o.logger(cmd)
	opts := []scope.Option{scope.WithLogger(logger)}

	if o.client != "" {
		opts = append(opts, scope.WithClientPath(o.client))
	}
	if o.server != "" {
		opts = append(opts, scope.WithServer(o.server))
	}
	if o.kubeconfig != "" {
		opts = append(opts, scope.WithKubeconfig(o.kubeconfig))
	}
	if o.namespace != "" {
		opts = append(opts, scope.WithNamespace(o.namespace))
	}
	if o.token != "" {
		opts = append(opts, scope.WithToken(o.token))
	}
	if o.timeout > 0 {
		opts = append(opts, scope.WithTimeout(o.timeout))
	}
	if o.executor != nil {
		opts = append(opts, scope.WithExecutor(o.executor))
	}

	var metrics *metricsServer
	if o.metricsAddr != "" {
		var err error
		metrics, err = startMetricsServer(cmd.Context(), o.metricsAddr, rootCmd.Version, logger)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, scope.WithMetrics(metrics.provider.Metrics()))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, s := scope.NewRoot(ctx, scope.DefaultsFromEnv(), opts...)

	release := func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close scope", "error", err)
		}
		if metrics != nil {
			metrics.stop(logger)
		}
	}
	return ctx, release, nil
}

// instrumentationConfig returns the config used by --metrics-addr. Metrics
// always go to Prometheus. Tracing follows the environment.
func instrumentationConfig(version string) (instrumentation.Config, error) {
	config, err := instrumentation.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		return instrumentation.Config{}, err
	}
	config.Enabled = true
	config.MetricsExporter = instrumentation.ExporterPrometheus
	if version != "" {
		config.ServiceVersion = version
	}
	return config, nil
}

func writeLine(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
