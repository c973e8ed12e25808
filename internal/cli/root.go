package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/turtacn/Tether/internal/monitor"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile   string
	baseURL   string
	accessKey string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Tether: operator console for a local drone control server",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "tether.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&accessKey, "access-key", "", "server access key (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(commandCmd)
}

// loadConfig reads the YAML config. A missing file is only an error when
// the path was given explicitly.
func loadConfig(cmd *cobra.Command) (*protocol.Config, error) {
	cfg := &protocol.Config{}

	data, err := os.ReadFile(cfgFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "cli.loadConfig", "parse "+cfgFile, err)
		}
	case os.IsNotExist(err) && !cmd.Root().PersistentFlags().Changed("config"):
	default:
		return nil, errors.New(errors.ErrCodeConfigInvalid, "cli.loadConfig", "read "+cfgFile, err)
	}

	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if accessKey != "" {
		cfg.Server.AccessKey = accessKey
		cfg.Simulator.AccessKey = accessKey
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// boot loads the config and brings up logging and metrics.
func boot(cmd *cobra.Command) *protocol.Config {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg.Observability.LogLevel)
	monitor.InitMetrics(cfg.Observability.MetricsPort)
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Personal.AI order the ending
