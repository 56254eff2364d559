// Package interactive provides the interactive command-line interface
// for clink-mon.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/clink-protocol/clink-go/pkg/connection"
	"github.com/clink-protocol/clink-go/pkg/monitor"
)

// Source is the slice of the application the interactive loop needs.
type Source interface {
	// Monitor returns the live monitor, or nil while detached.
	Monitor() *monitor.Monitor

	// DeviceName returns the attached PSU's display name.
	DeviceName() string

	// State returns the attach state.
	State() connection.State
}

// Monitor handles interactive mode for clink-mon.
type Monitor struct {
	src Source
	rl  *readline.Instance
}

// New creates the interactive handler.
func New(src Source) (*Monitor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "psu> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Monitor{src: src, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (m *Monitor) Stdout() io.Writer {
	return m.rl.Stdout()
}

// Run starts the interactive command loop.
func (m *Monitor) Run(ctx context.Context, cancel context.CancelFunc) {
	defer m.rl.Close()

	m.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := m.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "all":
			m.cmdAll(ctx)
		case "read":
			m.cmdRead(ctx, args)
		case "channels":
			m.cmdChannels()
		case "status":
			m.cmdStatus()
		case "help":
			m.printHelp()
		case "quit", "exit":
			cancel()
			return
		default:
			fmt.Fprintf(m.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (m *Monitor) printHelp() {
	fmt.Fprint(m.rl.Stdout(), `Commands:
  all                    read the full sensor tree
  read <kind> <index>    read one channel (e.g. 'read voltage 1')
  channels               list the channel tree
  status                 show attach state and device name
  help                   show this help
  quit                   exit
`)
}

func (m *Monitor) cmdAll(ctx context.Context) {
	mon := m.src.Monitor()
	if mon == nil {
		fmt.Fprintf(m.rl.Stdout(), "Not attached (%s)\n", m.src.State())
		return
	}
	readings, err := mon.ReadAll(ctx)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	for _, r := range readings {
		if r.Err != nil {
			fmt.Fprintf(m.rl.Stdout(), "  %-14s  unavailable (%v)\n", r.Label, r.Err)
			continue
		}
		fmt.Fprintf(m.rl.Stdout(), "  %-14s  %s\n", r.Label, r.Kind.Format(r.Value))
	}
}

func (m *Monitor) cmdRead(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: read <kind> <index>")
		return
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Bad index: %s\n", args[1])
		return
	}

	ch, ok := findChannel(args[0], index)
	if !ok {
		fmt.Fprintf(m.rl.Stdout(), "No such channel: %s %d (try 'channels')\n", args[0], index)
		return
	}

	mon := m.src.Monitor()
	if mon == nil {
		fmt.Fprintf(m.rl.Stdout(), "Not attached (%s)\n", m.src.State())
		return
	}
	value, err := mon.Read(ctx, ch)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "%s: %s\n", ch.Label, ch.Kind.Format(value))
}

func (m *Monitor) cmdChannels() {
	for _, ch := range monitor.Channels() {
		fmt.Fprintf(m.rl.Stdout(), "  %s %d  %s\n", ch.Kind, ch.Index, ch.Label)
	}
}

func (m *Monitor) cmdStatus() {
	fmt.Fprintf(m.rl.Stdout(), "State:  %s\n", m.src.State())
	if name := m.src.DeviceName(); name != "" {
		fmt.Fprintf(m.rl.Stdout(), "Device: %s\n", name)
	}
}

// findChannel resolves a kind name and index to a tree channel.
func findChannel(kind string, index int) (monitor.Channel, bool) {
	for _, ch := range monitor.Channels() {
		if ch.Kind.String() == strings.ToLower(kind) && ch.Index == index {
			return ch, true
		}
	}
	return monitor.Channel{}, false
}
