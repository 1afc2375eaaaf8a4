package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/argolocal/argolocal/pkg/config"
	"github.com/argolocal/argolocal/pkg/errors"
	"github.com/argolocal/argolocal/pkg/logging"
)

// localConfigFile is picked up from the working directory before the user config
const localConfigFile = "argolocal.yaml"

var (
	cfgFile   string
	logLevel  string
	configErr error

	// cfg is loaded once before any command runs and never modified
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "argolocal",
	Short: "Run ArgoCD on a local kind cluster",
	Long: `argolocal brings up a local Kubernetes cluster with ArgoCD installed and
reachable on localhost, and keeps it that way.

Every command observes the environment first and only does the work the
current state needs: a missing cluster is created, a missing installation is
applied, stopped workloads are restarted and a dead port-forward is relaunched.
Running the same command twice is safe.

Run without a command to open the interactive menu.

Configuration is read from --config, ./argolocal.yaml or
$XDG_CONFIG_HOME/argolocal/config.yaml, and ARGOLOCAL_* environment variables
(for example ARGOLOCAL_TUNNEL_PORT=9090).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	Args:              cobra.NoArgs,
}

func init() {
	// assigned here rather than in the literal to break the rootCmd -> runMenu -> dispatch -> rootCmd initialization cycle
	rootCmd.RunE = runMenu

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./argolocal.yaml or $XDG_CONFIG_HOME/argolocal/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Version = version

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(appsCmd)
}

func initConfig() {
	config.SetDefaults()

	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case fileExists(localConfigFile):
		viper.SetConfigFile(localConfigFile)
	default:
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ARGOLOCAL")
	// ARGOLOCAL_TUNNEL_BIND_DELAY for tunnel.bind_delay
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config: %w", err)
		}
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return errors.Wrap(errors.ErrCodeInvalidArgument, "invalid configuration", configErr)
	}
	loaded, err := config.Load()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidArgument, "invalid configuration", err)
	}
	cfg = loaded

	logging.SetDefaultStructuredLoggerWithLevel("argolocal", version, cfg.Log.Level)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
