// Package config defines the broker's runtime configuration and the
// cobra/viper flag and environment-variable wiring that populates it.
package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altmq/altmq-go/internal/commitlog"
)

// Config holds every value the broker needs to start serving.
type Config struct {
	// BindAddr is the TCP address the broker listens on.
	BindAddr string
	// DataDir is the root directory commit logs are stored under.
	DataDir string
	// SegmentSize is the maximum log byte size of one segment.
	SegmentSize uint64
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string
}

const (
	defaultBindAddr = "127.0.0.1:9000"
	defaultDataDir  = "storage/queue"
	defaultLogLevel = "info"
)

// RegisterFlags binds cmd's persistent flags to viper, under the
// BROKER_ environment variable prefix — flags win over environment,
// which wins over these defaults.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("addr", defaultBindAddr, "TCP address to listen on")
	flags.String("data-dir", defaultDataDir, "root directory for commit log storage")
	flags.Uint64("segment-size", commitlog.DefaultSegmentSize, "maximum log bytes per segment")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	v.SetEnvPrefix("broker")
	v.AutomaticEnv()

	_ = v.BindPFlag("addr", flags.Lookup("addr"))
	_ = v.BindPFlag("data-dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("segment-size", flags.Lookup("segment-size"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))
}

// FromViper reads the bound flag/environment values into a Config.
func FromViper(v *viper.Viper) Config {
	return Config{
		BindAddr:    v.GetString("addr"),
		DataDir:     v.GetString("data-dir"),
		SegmentSize: v.GetUint64("segment-size"),
		LogLevel:    v.GetString("log-level"),
	}
}
