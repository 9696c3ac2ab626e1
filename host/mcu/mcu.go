// Package mcu talks to the IR board console over a serial link
package mcu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"irnec/host/serial"
	"irnec/protocol"
)

var (
	// ErrNotConnected is returned by commands issued before Connect
	ErrNotConnected = errors.New("not connected to MCU")

	// ErrTimeout is returned when the board does not reply in time
	ErrTimeout = errors.New("timed out waiting for MCU reply")
)

// CommandError is an "error: ..." reply from the board console
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Dictionary is the board's info reply
type Dictionary struct {
	Version string            `json:"version"`
	MCU     string            `json:"mcu"`
	Config  map[string]string `json:"config"`
}

// MCU represents a connection to an IR board
type MCU struct {
	port        io.ReadWriteCloser
	readTimeout bool // Port reads return io.EOF when idle

	frames  chan *protocol.Frame
	replies chan string

	// Serializes commands so replies are not interleaved
	cmdMu sync.Mutex

	// ReplyTimeout bounds the wait for the first reply line
	ReplyTimeout time.Duration
	// Settle is how long to keep collecting after the last reply line
	Settle time.Duration

	dictionary *Dictionary

	cancel context.CancelFunc
	grp    *errgroup.Group

	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		ReplyTimeout: time.Second,
		Settle:       50 * time.Millisecond,
	}
}

// Connect connects to a board via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to a board with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	// Drop anything the board printed before we were listening
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", cfg.Device, err)
	}

	m.start(port, cfg.ReadTimeout > 0)
	glog.Infof("connected to %s", cfg.Device)
	return nil
}

// Attach uses an already open stream, e.g. one end of a net.Pipe
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.start(port, false)
}

func (m *MCU) start(port io.ReadWriteCloser, readTimeout bool) {
	m.port = port
	m.readTimeout = readTimeout
	m.frames = make(chan *protocol.Frame, 64)
	m.replies = make(chan string, 64)

	var ctx context.Context
	ctx, m.cancel = context.WithCancel(context.Background())
	m.grp, ctx = errgroup.WithContext(ctx)
	m.grp.Go(func() error {
		defer close(m.frames)
		return m.readLoop(ctx)
	})
	m.connected = true
}

// Close closes the connection and waits for the reader to stop
func (m *MCU) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	m.cancel()
	err := m.port.Close()
	if werr := m.grp.Wait(); werr != nil && !isClosed(werr) {
		glog.Warningf("reader stopped: %v", werr)
	}
	return err
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		strings.Contains(err.Error(), "closed")
}

// readLoop splits the stream into lines; frame reports go to Frames,
// everything else is a command reply
func (m *MCU) readLoop(ctx context.Context) error {
	buf := make([]byte, 256)
	var line bytes.Buffer

	for {
		n, err := m.port.Read(buf)
		for _, b := range buf[:n] {
			if b != '\n' {
				line.WriteByte(b)
				continue
			}
			text := strings.TrimRight(line.String(), "\r")
			line.Reset()
			if text == "" {
				continue
			}
			m.dispatch(text)
		}

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if m.readTimeout && errors.Is(err, io.EOF) {
				continue
			}
			return err
		}
	}
}

func (m *MCU) dispatch(text string) {
	frame, err := protocol.ParseFrame([]byte(text))
	if err == nil {
		glog.V(2).Infof("RCV frame %s", text)
		select {
		case m.frames <- frame:
		default:
			glog.Warningf("frame queue full, dropped %s", frame.Value)
		}
		return
	}
	if !errors.Is(err, protocol.ErrNotFrame) {
		glog.Warningf("malformed frame %q: %v", text, err)
		return
	}

	glog.V(2).Infof("RCV %q", text)
	select {
	case m.replies <- text:
	default:
		// Unsolicited output nobody is waiting for
		glog.V(1).Infof("dropped reply %q", text)
	}
}

// Frames returns the stream of capture reports.
// The channel is closed when the connection goes away.
func (m *MCU) Frames() <-chan *protocol.Frame {
	return m.frames
}

// Command sends one console line and returns the reply lines
func (m *MCU) Command(ctx context.Context, line string) ([]string, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}

	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	// Discard stale replies from earlier commands
	for drained := false; !drained; {
		select {
		case r := <-m.replies:
			glog.V(1).Infof("discarding stale reply %q", r)
		default:
			drained = true
		}
	}

	glog.V(2).Infof("SND %q", line)
	if _, err := io.WriteString(m.port, line+"\n"); err != nil {
		return nil, fmt.Errorf("failed to send %q: %w", line, err)
	}

	var lines []string
	timer := time.NewTimer(m.ReplyTimeout)
	defer timer.Stop()
	for {
		select {
		case r := <-m.replies:
			lines = append(lines, r)
			timer.Reset(m.Settle)
		case <-timer.C:
			if len(lines) == 0 {
				return nil, fmt.Errorf("%s: %w", line, ErrTimeout)
			}
			return lines, replyError(lines)
		case <-ctx.Done():
			return lines, ctx.Err()
		}
	}
}

// replyError converts the console's "error: CMD: MSG" reply to an error
func replyError(lines []string) error {
	for _, l := range lines {
		rest, ok := strings.CutPrefix(l, "error: ")
		if !ok {
			continue
		}
		cmd, msg, found := strings.Cut(rest, ": ")
		if !found {
			return &CommandError{Message: rest}
		}
		return &CommandError{Command: cmd, Message: msg}
	}
	return nil
}

// RetrieveDictionary asks the board for its build and wiring constants
func (m *MCU) RetrieveDictionary(ctx context.Context) (*Dictionary, error) {
	lines, err := m.Command(ctx, "info")
	if err != nil {
		return nil, err
	}

	dict := &Dictionary{}
	if err := json.Unmarshal([]byte(lines[0]), dict); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}
	m.dictionary = dict
	return dict, nil
}

// GetDictionary returns the last retrieved dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// Send transmits an NEC frame from the board
func (m *MCU) Send(ctx context.Context, value uint32, bits int, carrierKHz uint32) error {
	line := fmt.Sprintf("send 0x%08X %d", value, bits)
	if carrierKHz != 0 {
		line += fmt.Sprintf(" %d", carrierKHz)
	}
	_, err := m.Command(ctx, line)
	return err
}

// SendNEC transmits an NEC address/command pair from the board
func (m *MCU) SendNEC(ctx context.Context, address uint16, command byte) error {
	_, err := m.Command(ctx, fmt.Sprintf("sendnec 0x%04X 0x%02X", address, command))
	return err
}

// StartReceiving turns on capture reporting
func (m *MCU) StartReceiving(ctx context.Context) error {
	_, err := m.Command(ctx, "recv")
	return err
}

// IsConnected returns whether the board is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}
