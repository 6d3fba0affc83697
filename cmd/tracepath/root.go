// cmd/tracepath/root.go
// Root command for the `tracepath` CLI. It wires common flags, global
// initialisation (logger, config file, colour output) and adds top‑level
// sub‑commands located in sibling files (attach.go, record.go, replay.go,
// version.go).
package main

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tracepath/tracepath/internal/logging"
	"github.com/tracepath/tracepath/pkg/version"
)

var (
    cfgFile string
    logJSON bool
    rootCmd = &cobra.Command{
        Use:   "tracepath",
        Short: "Tracepath – live function-call tracer",
        Long:  `Tracepath records function entry/exit events from a running program and renders them as an interactive Chrome Trace Event timeline.`,
        PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
            // Initialise logger exactly once (idempotent).
            if logging.Initialised() {
                return nil
            }
            return initLogger()
        },
    }
)

func init() {
    cobra.OnInitialize(initConfig)

    // Global flags.
    rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file (YAML/TOML/JSON)")
    rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Enable JSON log output (default is human‑friendly console)")

    // Add sub‑commands (defined in other files).
    rootCmd.AddCommand(newAttachCmd())
    rootCmd.AddCommand(newRecordCmd())
    rootCmd.AddCommand(newReplayCmd())
    rootCmd.AddCommand(newQueryCmd())
    rootCmd.AddCommand(newVersionCmd())
    rootCmd.AddCommand(newEBPFAttachCmd())
    rootCmd.AddCommand(newKubectlCmd())
}

// Execute is called by main.main().
func Execute() error {
    return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
    if cfgFile != "" {
        viper.SetConfigFile(cfgFile)
    } else {
        // Default search: $HOME/.config/tracepath/config.{yaml,toml,json}
        home, err := os.UserHomeDir()
        if err == nil {
            viper.AddConfigPath(filepath.Join(home, ".config", "tracepath"))
        }
        viper.SetConfigName("config")
    }

    viper.SetEnvPrefix("TRACEPATH")
    viper.AutomaticEnv() // read in environment variables that match

    // Load config file if present.
    if err := viper.ReadInConfig(); err == nil {
        logging.Sugar().Infof("Using config file: %s", viper.ConfigFileUsed())
    }
}

func initLogger() error {
    cfg := zap.NewProductionConfig()
    if !logJSON {
        cfg = zap.NewDevelopmentConfig()
    }
    // Add timestamp in RFC3339 for easy copy‑paste.
    cfg.EncoderConfig.EncodeTime = zap.TimeEncoder(func(t time.Time, enc zap.PrimitiveArrayEncoder) {
        enc.AppendString(t.Format(time.RFC3339))
    })

    logger, err := cfg.Build()
    if err != nil {
        return err
    }
    logging.Set(logger)
    logging.Sugar().Infow("Tracepath starting", "go_version", runtime.Version(), "version", version.String())
    return nil
}
