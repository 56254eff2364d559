// Command clink-mon monitors a Corsair RMi/HXi power supply.
//
// The monitor attaches to the PSU's HID interface, reads the full
// sensor tree (temperatures, fan speed, rail voltages, currents, and
// power) at a fixed interval, and prints the readings. If the device
// vanishes mid-run it reattaches in the background with backoff.
//
// Usage:
//
//	clink-mon [flags]
//
// Flags:
//
//	-device string        hidraw device node (default "/dev/hidraw0")
//	-emulate              run against the built-in PSU emulator
//	-config string        configuration file path (YAML)
//	-interval duration    polling interval (default 2s)
//	-timeout duration     per-request reply timeout (default 300ms)
//	-count int            number of polls, 0 for unlimited
//	-protocol-log string  write protocol events to a CBOR capture file
//	-interactive          enable interactive command mode
//	-verbose              print protocol events to the console
//	-list                 print the sensor channel tree and exit
//	-version              print the driver version and exit
//
// Examples:
//
//	# Poll the PSU every two seconds
//	clink-mon -device /dev/hidraw3
//
//	# One-shot reading against the emulator
//	clink-mon -emulate -count 1
//
//	# Interactive mode with a protocol capture
//	clink-mon -device /dev/hidraw3 -interactive -protocol-log psu.clog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clink-protocol/clink-go/cmd/clink-mon/interactive"
	"github.com/clink-protocol/clink-go/pkg/connection"
	clog "github.com/clink-protocol/clink-go/pkg/log"
	"github.com/clink-protocol/clink-go/pkg/monitor"
	"github.com/clink-protocol/clink-go/pkg/sensor"
	"github.com/clink-protocol/clink-go/pkg/session"
	"github.com/clink-protocol/clink-go/pkg/transport"
	"github.com/clink-protocol/clink-go/pkg/version"
)

// Config holds the monitor configuration. File values are overridden by
// flags given on the command line.
type Config struct {
	Device      string        `yaml:"device"`
	Emulate     bool          `yaml:"emulate"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	ProtocolLog string        `yaml:"protocol_log"`

	Interactive bool `yaml:"-"`
	Verbose     bool `yaml:"-"`
	Count       int  `yaml:"-"`
}

func loadConfig(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configFile := flag.String("config", "", "Configuration file path (YAML)")
	device := flag.String("device", "/dev/hidraw0", "hidraw device node")
	emulate := flag.Bool("emulate", false, "Run against the built-in PSU emulator")
	interval := flag.Duration("interval", 2*time.Second, "Polling interval")
	timeout := flag.Duration("timeout", session.DefaultTimeout, "Per-request reply timeout")
	count := flag.Int("count", 0, "Number of polls, 0 for unlimited")
	protocolLog := flag.String("protocol-log", "", "Write protocol events to a CBOR capture file")
	interactiveMode := flag.Bool("interactive", false, "Enable interactive command mode")
	verbose := flag.Bool("verbose", false, "Print protocol events to the console")
	list := flag.Bool("list", false, "Print the sensor channel tree and exit")
	showVersion := flag.Bool("version", false, "Print the driver version and exit")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if *showVersion {
		fmt.Println("clink-mon", version.String())
		return
	}

	if *list {
		for _, ch := range monitor.Channels() {
			fmt.Println(ch)
		}
		return
	}

	var cfg Config
	if *configFile != "" {
		loaded, err := loadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Flags win over file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "emulate":
			cfg.Emulate = *emulate
		case "interval":
			cfg.Interval = *interval
		case "timeout":
			cfg.Timeout = *timeout
		case "protocol-log":
			cfg.ProtocolLog = *protocolLog
		}
	})
	if cfg.Device == "" {
		cfg.Device = *device
	}
	if cfg.Interval <= 0 {
		cfg.Interval = *interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = *timeout
	}
	cfg.Interactive = *interactiveMode
	cfg.Verbose = *verbose
	cfg.Count = *count

	plog, closeLog, err := buildProtocolLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &app{cfg: cfg, plog: plog}
	mgr := connection.NewManager(a.attach, connection.WithLogger(plog))
	defer mgr.Close()
	a.mgr = mgr

	if err := mgr.Attach(ctx); err != nil {
		log.Fatalf("Failed to attach: %v", err)
	}
	log.Printf("Attached to %s", a.deviceName())
	defer a.detach()

	if cfg.Interactive {
		ic, err := interactive.New(a)
		if err != nil {
			log.Fatalf("Failed to start interactive mode: %v", err)
		}
		log.SetOutput(ic.Stdout())
		go ic.Run(ctx, cancel)
	} else {
		go a.pollLoop(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}
	cancel()
}

// buildProtocolLogger assembles the event logger from the file capture
// and console options.
func buildProtocolLogger(cfg Config) (clog.Logger, func(), error) {
	var loggers []clog.Logger
	closeLog := func() {}

	if cfg.ProtocolLog != "" {
		fl, err := clog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeLog = func() { fl.Close() }
	}
	if cfg.Verbose {
		loggers = append(loggers, clog.NewSlogAdapter(newConsoleLogger()))
	}

	switch len(loggers) {
	case 0:
		return clog.NoopLogger{}, closeLog, nil
	case 1:
		return loggers[0], closeLog, nil
	default:
		return clog.NewMultiLogger(loggers...), closeLog, nil
	}
}

// app owns the current session and rebuilds it on reattach.
type app struct {
	cfg  Config
	plog clog.Logger
	mgr  *connection.Manager

	mu   sync.Mutex
	sess *session.Session
	mon  *monitor.Monitor
}

// attach opens the port and establishes a session. Called by the
// connection manager for the initial attach and every reattach.
func (a *app) attach(ctx context.Context) error {
	var port transport.Port
	if a.cfg.Emulate {
		port = transport.NewEmulator()
	} else {
		hid, err := transport.OpenHIDRaw(a.cfg.Device)
		if err != nil {
			return err
		}
		port = hid
	}

	s, err := session.Attach(ctx, port,
		session.WithTimeout(a.cfg.Timeout),
		session.WithLogger(a.plog))
	if err != nil {
		port.Close()
		return err
	}

	a.mu.Lock()
	a.sess = s
	a.mon = monitor.New(sensor.NewClient(s))
	a.mu.Unlock()
	return nil
}

func (a *app) detach() {
	a.mu.Lock()
	s := a.sess
	a.sess = nil
	a.mon = nil
	a.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// Monitor implements interactive.Source.
func (a *app) Monitor() *monitor.Monitor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mon
}

// DeviceName implements interactive.Source.
func (a *app) DeviceName() string {
	return a.deviceName()
}

// State implements interactive.Source.
func (a *app) State() connection.State {
	return a.mgr.State()
}

func (a *app) deviceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return ""
	}
	return a.sess.Name()
}

// pollLoop reads the full sensor tree at the configured interval.
func (a *app) pollLoop(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	polls := 0
	for {
		if err := a.poll(ctx); err != nil {
			log.Printf("Poll failed: %v", err)
		}
		polls++
		if a.cfg.Count > 0 && polls >= a.cfg.Count {
			cancel()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *app) poll(ctx context.Context) error {
	mon := a.Monitor()
	if mon == nil {
		return fmt.Errorf("device not attached (%s)", a.mgr.State())
	}

	readings, err := mon.ReadAll(ctx)
	if err != nil {
		return err
	}

	lost := false
	fmt.Printf("--- %s  %s ---\n", a.deviceName(), time.Now().Format(time.TimeOnly))
	for _, r := range readings {
		if r.Err != nil {
			fmt.Printf("  %-14s  unavailable (%v)\n", r.Label, r.Err)
			if isDeviceLoss(r.Err) {
				lost = true
			}
			continue
		}
		fmt.Printf("  %-14s  %s\n", r.Label, r.Kind.Format(r.Value))
	}

	if lost {
		a.detach()
		a.mgr.NotifyLost("poll errors indicate device loss")
	}
	return nil
}

// newConsoleLogger builds the slog logger the -verbose protocol event
// stream goes to.
func newConsoleLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// isDeviceLoss distinguishes a vanished device from a sensor that
// merely has nothing to report.
func isDeviceLoss(err error) bool {
	var terr *session.TransportError
	return errors.Is(err, session.ErrTimeout) ||
		errors.Is(err, session.ErrSessionClosed) ||
		errors.As(err, &terr)
}
