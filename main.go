package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skycourier/missionrunner/internal/mission"
	"github.com/skycourier/missionrunner/internal/runner"
)

func main() {
	root := &cobra.Command{
		Use:           "missionrunner",
		Short:         "Mission execution engine for a delivery drone companion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		log.Printf("Fatal: %v", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var cfg runner.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the mission engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Transport.DeviceID = cfg.DeviceID

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := runner.Run(ctx, cfg)
			log.Printf("Signing off - BYE")
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.DeviceID, "device-id", envOr("DEVICE_ID", "pi-drone-01"), "provisioned device id")
	flags.StringVar(&cfg.Transport.BrokerURL, "mqtt-broker", defaultBroker(), "MQTT broker address (tcp://host:port)")
	flags.StringVar(&cfg.Transport.Username, "mqtt-username", envOr("MQTT_USERNAME", ""), "MQTT username")
	flags.StringVar(&cfg.Transport.Password, "mqtt-password", envOr("MQTT_PASSWORD", ""), "MQTT password")
	flags.BoolVar(&cfg.Transport.TLSEnabled, "mqtt-tls", envOr("MQTT_TLS_ENABLED", "false") == "true", "connect with TLS")
	flags.StringVar(&cfg.Transport.CACertPath, "ca-cert", envOr("MQTT_CA_CERT", ""), "CA certificate for TLS")
	flags.StringVar(&cfg.Transport.PrivateKeyPath, "private-key", "", "private key for JWT broker auth")
	flags.StringVar(&cfg.Transport.Algorithm, "jwt-algorithm", "RS256", "JWT signing algorithm (RS256 or ES256)")
	flags.StringVar(&cfg.MissionPath, "mission", "", "mission file to preload")
	flags.StringVar(&cfg.MissionDir, "mission-dir", "data/sample_missions", "directory for mission id lookup")
	flags.Float64Var(&cfg.Speed, "speed", envFloat("MISSION_SPEED", 0), "mission speed override in m/s")
	flags.BoolVar(&cfg.DryRun, "dry-run", false, "run without a broker connection")
	flags.BoolVar(&cfg.Transport.Verbose, "verbose", false, "enable MQTT client debug logging")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <mission file>",
		Short: "Validate a mission descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mission.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("mission %s (%q): %d waypoints, max speed %.1f m/s, default altitude %.1f m\n",
				m.ID, m.Name, len(m.Waypoints), m.MaxSpeed, m.DefaultAltitude)
			return nil
		},
	}
}

func defaultBroker() string {
	host := envOr("MQTT_HOST", "localhost")
	port := envOr("MQTT_PORT", "1883")
	return fmt.Sprintf("tcp://%s:%s", host, port)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
