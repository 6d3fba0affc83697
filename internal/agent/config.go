// internal/agent/config.go
// Centralised configuration loader for the Tracepath *agent* binary / library.
// Consumers (cmd/tracepath-agent and embedded SDK users) can either:
//   - Call Load() to read Settings from environment variables + optional
//     config file path, or
//   - Instantiate the collector's Config struct (collector.go) manually and
//     pass it to agent.NewCollector.
//
// The implementation purposefully avoids taking an external YAML dependency;
// when a config file is specified it is read with github.com/spf13/viper,
// which is already a dependency of the CLI layer. A missing or unreadable
// file is ignored and the defaults remain.
package agent

import (
	"time"

	"github.com/spf13/viper"
)

// Settings duplicates fields from the Collector's Config plus exporter
// and encoder choices.
type Settings struct {
    // Sampling -------------------------------------------
    Hz int `mapstructure:"hz"` // default 1000

    // Export ---------------------------------------------
    GatewayAddr string        `mapstructure:"gateway_addr"`
    ExportEvery time.Duration `mapstructure:"export_every"`

    // Encoder format, as passed to encoder.New: "binary" selects the binary
    // container; any other value (default "json") selects NDJSON.
    Encoder string `mapstructure:"encoder"`

    // File exporter (optional).
    FileDir      string `mapstructure:"file_dir"`
    FileCompress bool   `mapstructure:"file_compress"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Settings {
    return Settings{
        Hz:          1000,
        ExportEvery: 500 * time.Millisecond,
        Encoder:     "json",
        GatewayAddr: "localhost:4317",
    }
}

// Load reads configuration from env + optional file.  envPrefix e.g. "TRACEPATH"
// transforms AGENT_HZ → Hz.  If filePath is empty only env vars are used.
func Load(filePath, envPrefix string) Settings {
    cfg := DefaultConfig()

    v := viper.New()
    if envPrefix != "" {
        v.SetEnvPrefix(envPrefix)
        v.AutomaticEnv()
    }
    if filePath != "" {
        v.SetConfigFile(filePath)
        _ = v.ReadInConfig() // ignore error; treat as optional
    }
    _ = v.Unmarshal(&cfg) // best‐effort merge env + file → struct
    return cfg
}
