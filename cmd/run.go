package main

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/ps2mqtt/bridge"
	"github.com/lone-faerie/ps2mqtt/config"
	"github.com/lone-faerie/ps2mqtt/log"
)

// Flags for [RunCommand]
var (
	ConfigPath      string        // Path to config file, created if it doesn't exist
	Server          string        // MQTT broker host
	Port            int           // MQTT broker port
	Username        string        // MQTT broker username
	Password        string        // MQTT broker password
	BaseTopic       string        // Base topic for state and availability
	DiscoveryPrefix string        // Discovery prefix, or 'disabled' to disable discovery
	StatusTopic     string        // Hub status topic to watch for re-announcement
	StoragePaths    string        // Comma-separated storage paths to monitor
	Period          time.Duration // Update period
	LogLevel        string        // Log level
)

var cfg *config.Config

// RunCommand is the main [cobra.Command] used for running the daemon.
var RunCommand = &cobra.Command{
	Use:     "run [--config <path>] [flags]",
	Aliases: []string{"start"},
	Short:   "Run the metrics daemon",
	Long: `Run the daemon publishing host statistics to the MQTT broker.

A connection to the MQTT broker will be established and the daemon will run in the foreground until a signal is received.

	- SIGINT or SIGTERM will gracefully shutdown the daemon.

If --config names a file that does not exist, the effective configuration is written to it, so the next run can be configured by editing the file. Values in the config may reference environment variables ($VAR) or container secrets (!secret name). Without a config file, the default configuration reads:

	- server:   $PS2MQTT_MQTT_SERVER
	- port:     $PS2MQTT_MQTT_PORT
	- username: $PS2MQTT_MQTT_USERNAME
	- password: $PS2MQTT_MQTT_PASSWORD

All of the flags, if specified, override the equivalent values in the config.`,
	Example: `  ps2mqtt run --config ps2mqtt.yaml
  ps2mqtt run --mqtt-server 127.0.0.1 --period 30s
  ps2mqtt run --storage-paths /,/mnt/data`,
	GroupID: "commands",
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err = config.Load(ConfigPath)
		if err != nil {
			return err
		}

		if err = flagsToConfig(cfg); err != nil {
			return err
		}

		setLogHandler(cfg)
		log.Debug("Config loaded", "server", cfg.MQTT.Host, "base_topic", cfg.BaseTopic)

		if ConfigPath != "" {
			if err := cfg.WriteFile(ConfigPath); err != nil {
				log.WarnError("Unable to save config", err, "path", ConfigPath)
			} else {
				log.Info("Saved config", "path", ConfigPath)
			}
		}

		return nil
	},
	RunE: runDaemon,

	DisableFlagsInUseLine: true,
}

func init() {
	RunCommand.Flags().SortFlags = false
	RunCommand.Flags().StringVarP(&ConfigPath, "config", "c", "", "Path to config file, created if non existing")
	RunCommand.Flags().StringVarP(&Server, "mqtt-server", "s", "", "MQTT broker host")
	RunCommand.Flags().IntVarP(&Port, "mqtt-port", "p", 0, "MQTT broker port")
	RunCommand.Flags().StringVar(&Username, "mqtt-username", "", "MQTT client username")
	RunCommand.Flags().StringVar(&Password, "mqtt-password", "", "MQTT client password")
	RunCommand.Flags().StringVarP(&BaseTopic, "base-topic", "t", "", "Base topic for state and availability")
	RunCommand.Flags().StringVarP(&DiscoveryPrefix, "discovery-prefix", "D", "", "Discovery prefix, or 'disabled' to disable")
	RunCommand.Flags().StringVar(&StatusTopic, "status-topic", "", "Hub status topic that triggers re-announcement")
	RunCommand.Flags().StringVar(&StoragePaths, "storage-paths", "", "Comma-separated path(s) for storage usage monitoring")
	RunCommand.Flags().DurationVarP(&Period, "period", "i", 0, "Update period")
	RunCommand.Flags().StringVarP(&LogLevel, "log", "l", "", "Log level")

	RunCommand.MarkFlagFilename("config", "yaml", "yml")

	RootCommand.AddCommand(RunCommand)
}

func flagsToConfig(cfg *config.Config) error {
	if LogLevel != "" {
		var level log.Level
		if err := level.UnmarshalText([]byte(LogLevel)); err != nil {
			return err
		}

		cfg.Log.Level = level
	}

	if Server != "" {
		cfg.MQTT.Host = Server
	}

	if Port != 0 {
		cfg.MQTT.Port = Port
	}

	if Username != "" {
		cfg.MQTT.Username = Username
	}

	if Password != "" {
		cfg.MQTT.Password = Password
	}

	if BaseTopic != "" {
		cfg.BaseTopic = strings.TrimSuffix(BaseTopic, "/")
	}

	if DiscoveryPrefix == "disabled" {
		cfg.Discovery.Enabled = false
	} else if DiscoveryPrefix != "" {
		cfg.Discovery.Prefix = DiscoveryPrefix
	}

	if StatusTopic != "" {
		cfg.Discovery.StatusTopic = StatusTopic
	}

	if StoragePaths != "" {
		cfg.StoragePaths = StoragePaths
	}

	if Period > 0 {
		cfg.Period = config.Duration(Period)
	}

	return nil
}

func setLogHandler(cfg *config.Config) {
	log.SetLogLevel(cfg.Log.Level)

	var w io.Writer

	switch strings.ToLower(cfg.Log.Output) {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	case "discard":
		w = io.Discard
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("Unable to open log file, deferring to stderr", err)
			return
		}

		w = f
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		if w == nil {
			w = os.Stderr
		}

		log.SetJSONHandler(w)
	default:
		if w != nil {
			log.SetOutput(w)
		}
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bridge.New(cfg)
	if err != nil {
		log.Error("Unable to build metric catalog", err)
		return &ExitError{err, 1}
	}

	if err := b.Connect(ctx); err != nil {
		log.Error("Not connected", err, "host", cfg.MQTT.Host, "port", cfg.MQTT.Port)
		return &ExitError{err, 1}
	}

	defer func() {
		b.Disconnect()
		log.Info("Done")
	}()

	return b.Run(ctx)
}
