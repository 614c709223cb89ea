package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ddimmery/NYU-HPC/pkg/collect"
	"github.com/ddimmery/NYU-HPC/pkg/logging"
	"github.com/ddimmery/NYU-HPC/pkg/queue"
	"github.com/ddimmery/NYU-HPC/pkg/store"
	"github.com/ddimmery/NYU-HPC/pkg/template"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hpcsweep",
	Short: "CLI for batch-queue parameter sweeps",
	Long: `hpcsweep splits a computation over an integer parameter range into
independent jobs, submits them to an external batch queue (qsub/sbatch
style), and merges the per-job artifact files into one consolidated
dataset once the workers have finished.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hpcsweep/config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".hpcsweep"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("hpcsweep")
	viper.AutomaticEnv()

	viper.SetDefault("submit_cmd", "qsub")
	viper.SetDefault("status_cmd", "qstat")
	viper.SetDefault("cancel_cmd", "qdel")
	viper.SetDefault("spool_dir", os.TempDir())
	viper.SetDefault("store_backend", "sqlite")

	// Missing config file is fine; defaults and env cover everything
	_ = viper.ReadInConfig()
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

func newLogger() *logging.Logger {
	return logging.New(logging.ParseLevel(logLevel), false)
}

func newQueue(log *logging.Logger) *queue.BatchQueue {
	return queue.NewBatchQueue(queue.Config{
		SubmitCmd:  viper.GetString("submit_cmd"),
		SubmitArgs: viper.GetStringSlice("submit_args"),
		StatusCmd:  viper.GetString("status_cmd"),
		StatusArgs: viper.GetStringSlice("status_args"),
		CancelCmd:  viper.GetString("cancel_cmd"),
		SpoolDir:   viper.GetString("spool_dir"),
	}, log)
}

func openStore() (store.Store, error) {
	backend := viper.GetString("store_backend")
	dsn := viper.GetString("store_dsn")
	if backend == "sqlite" && dsn == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".hpcsweep")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dsn = filepath.Join(dir, "manifest.db")
	}
	return store.Open(backend, dsn)
}

// ExitCode maps the error taxonomy to distinct process exit codes
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var missing *template.MissingBindingError
	var unused *template.UnusedBindingError
	var submission *queue.SubmissionError
	var noArtifacts *collect.NoArtifactsFoundError
	var duplicate *collect.DuplicateKeyError
	var incomplete *collect.IncompleteSweepError
	switch {
	case errors.As(err, &missing), errors.As(err, &unused):
		return 2
	case errors.As(err, &submission):
		return 3
	case errors.As(err, &noArtifacts):
		return 4
	case errors.As(err, &duplicate):
		return 5
	case errors.As(err, &incomplete):
		return 6
	}
	return 1
}
