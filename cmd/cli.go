package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"hush/internal/config"
	"hush/pkg/build"

	"github.com/spf13/cobra"
)

// Options is the parsed command line.
type Options struct {
	Config *config.Config

	// Run is set when the root command should start the engine.
	Run bool
	// Command names a one-off subcommand, currently only "list".
	Command     string
	Interactive bool

	RecordFile string
}

type flagValues struct {
	configPath   string
	inputDevice  int
	outputDevice int
	sampleRate   float64
	frames       int
	lowLatency   bool
	engine       string
	strength     float64
	record       bool
	recordFile   string
	noTUI        bool
	wsAddr       string
	udpAddr      string
	logLevel     string
	verbose      bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies explicitly set flags on top of it.
func ParseArgs(args []string) (*Options, error) {
	info := build.GetInfo()
	opts := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(fv.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &fv, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Run = true
			if opts.Config.Recording.Enabled {
				opts.RecordFile = fv.recordFile
				if opts.RecordFile == "" {
					opts.RecordFile = filepath.Join(opts.Config.Recording.OutputDir,
						"hush-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
				}
			}
			return nil
		},
	}
	rootCmd.SetVersionTemplate(info.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "list"
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Browse devices in a terminal UI")
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "f", "", "Path to a YAML config file (default ./config.yaml if present)")

	// Audio Device Configuration
	pf.IntVar(&fv.inputDevice, "input", config.MinDeviceID,
		"Input device ID. Use 'list' to see devices; -1 picks automatically")
	pf.IntVar(&fv.outputDevice, "output", config.MinDeviceID,
		"Output device ID. Use 'list' to see devices; -1 picks automatically")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&fv.frames, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per buffer; also the denoiser frame size")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", true,
		"Request the devices' low latency settings")

	// Denoise Configuration
	pf.StringVarP(&fv.engine, "engine", "e", config.DefaultEngine,
		"Denoise engine: spectral, rnnoise, gate or passthrough")
	pf.Float64VarP(&fv.strength, "strength", "m", config.DefaultStrength,
		"Initial wet/dry mix, 0 (raw) to 1 (fully denoised)")

	// Recording Configuration
	pf.BoolVarP(&fv.record, "record", "r", false, "Record the processed output to a WAV file")
	pf.StringVarP(&fv.recordFile, "record-file", "o", "",
		"Recording file name. Default is <output_dir>/hush-DD-MM-YYYY-HHMMSS.wav")

	// Observers
	pf.BoolVar(&fv.noTUI, "no-tui", false, "Run headless without the terminal monitor")
	pf.StringVar(&fv.wsAddr, "ws", "", "Serve the level feed over WebSocket on this address, e.g. :8080")
	pf.StringVar(&fv.udpAddr, "udp", "", "Send level packets over UDP to host:port")

	// Debug Configuration
	pf.StringVar(&fv.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.BoolVarP(&fv.verbose, "verbose", "v", false, "Shorthand for --log-level=debug")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, fmt.Errorf("%s: %w", info.Name, err)
	}
	return opts, nil
}

// applyFlags copies every flag the user set explicitly onto cfg.
func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("input") {
		cfg.Audio.InputDevice = fv.inputDevice
	}
	if set("output") {
		cfg.Audio.OutputDevice = fv.outputDevice
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.frames
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if set("engine") {
		cfg.Denoise.Engine = fv.engine
	}
	if set("strength") {
		cfg.Denoise.Strength = fv.strength
	}
	if set("record") || set("record-file") {
		cfg.Recording.Enabled = fv.record || fv.recordFile != ""
	}
	if set("no-tui") {
		cfg.Monitor.TUI = !fv.noTUI
	}
	if set("ws") {
		cfg.Transport.WebSocketEnabled = fv.wsAddr != ""
		cfg.Transport.WebSocketAddress = fv.wsAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = fv.udpAddr != ""
		cfg.Transport.UDPTargetAddress = fv.udpAddr
	}
	if set("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if fv.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
