package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"hush/cmd"
	"hush/internal/audio"
	"hush/internal/config"
	"hush/internal/denoise"
	"hush/internal/log"
	"hush/internal/transport"
	"hush/internal/transport/udp"
	"hush/internal/tui"
	"hush/pkg/build"
)

// main is the entry point. The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Parse command line arguments and load configuration
//   - Initialize PortAudio, create the denoiser, select devices
//   - Any failure here is reported once and audio stays inactive
//
// 2. Concurrent Phase (Hot Path):
//   - PortAudio drives the engine callback
//   - Observers (monitor UI, publishers, recorder) poll on their own cadence
//
// 3. Shutdown Phase (Cold Path):
//   - Stop observers, then recorder, stream and denoiser in that order
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Command == "" && !opts.Run {
		return // help or version
	}

	cfg := opts.Config
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	paErr := audio.Initialize()
	if paErr == nil {
		defer audio.Terminate()
	}

	if opts.Command == "list" {
		if paErr != nil {
			log.Fatalf("%v", paErr)
		}
		if err := listDevices(opts.Interactive); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	engine, notice := startEngine(cfg, paErr)

	if opts.RecordFile != "" && engine.Active() {
		if err := os.MkdirAll(filepath.Dir(opts.RecordFile), 0o755); err != nil {
			log.Errorf("recording: %v", err)
		} else if err := engine.StartRecording(opts.RecordFile); err != nil {
			log.Errorf("recording: %v", err)
		}
	}

	publisher := startPublisher(cfg, engine)

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if cfg.Monitor.TUI {
		// The monitor owns the terminal, so diagnostics go to a file.
		if f, err := os.OpenFile("hush.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			log.SetOutput(f)
			defer f.Close()
		}
		info := build.GetInfo()
		model := tui.NewMonitorModel(engine, cfg.Monitor.RefreshInterval, info.Name+" "+info.Version, notice)
		if err := tui.RunMonitor(model); err != nil {
			log.Errorf("monitor: %v", err)
		}
	} else {
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		<-done
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Errorf("publisher: %v", err)
		}
	}
	recordFile, recording := engine.Recording()
	if err := engine.Close(); err != nil {
		log.Errorf("closing audio engine: %v", err)
	}
	if recording {
		fmt.Printf("Recording saved to: %s\n", recordFile)
	}
}

// startEngine builds the engine and tries to get audio flowing. The engine
// is always returned so observers have something to watch; the notice
// explains why it is inactive.
func startEngine(cfg *config.Config, paErr error) (*audio.Engine, string) {
	logger := log.Component("startup")

	var handle *denoise.Handle
	params, err := cfg.DenoiseParams()
	if err == nil {
		handle, err = denoise.Create(params)
	}
	if err != nil {
		logger.WithField("engine", cfg.Denoise.Engine).Errorf("denoiser unavailable: %v", err)
		return audio.NewEngine(cfg, nil), "Inactive: " + err.Error()
	}

	engine := audio.NewEngine(cfg, handle)
	if paErr != nil {
		logger.Errorf("%v", paErr)
		return engine, "Inactive: " + paErr.Error()
	}

	input, output, err := audio.OpenDevices(cfg.Audio.InputDevice, cfg.Audio.OutputDevice)
	if err != nil {
		logger.Errorf("device selection: %v", err)
		return engine, "Inactive: " + err.Error()
	}

	if err := engine.StartStream(input, output); err != nil {
		logger.Errorf("%v", err)
		return engine, "Inactive: " + err.Error()
	}
	return engine, ""
}

// startPublisher wires the configured remote observers. It returns nil when
// none are enabled.
func startPublisher(cfg *config.Config, engine *audio.Engine) *transport.Publisher {
	var transports []transport.Transport

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(engine)
		if err := ws.ListenAndServe(cfg.Transport.WebSocketAddress); err != nil {
			log.Errorf("websocket: %v", err)
			ws.Close()
		} else {
			transports = append(transports, ws)
		}
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			log.Errorf("udp: %v", err)
		} else {
			transports = append(transports, sender)
		}
	}
	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if len(transports) == 0 {
		return nil
	}

	interval := cfg.Monitor.RefreshInterval
	if cfg.Transport.UDPEnabled {
		interval = cfg.Transport.UDPSendInterval
	}
	p, err := transport.NewPublisher(engine, interval, transports...)
	if err != nil {
		log.Errorf("publisher: %v", err)
		return nil
	}
	p.Start()
	return p
}

func listDevices(interactive bool) error {
	if interactive {
		return tui.StartDeviceListUI()
	}
	return audio.ListDevices(os.Stdout)
}
