// Line console
// Text commands from the host link, one per line; replies are lines too
package core

import (
	"errors"
	"strconv"

	"github.com/google/shlex"

	"irnec/protocol"
)

var (
	// ErrUnknownCommand is returned for a command name with no handler
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage is returned when a command's arguments don't parse
	ErrUsage = errors.New("bad arguments")
)

// MaxHoldRepeats caps the repeat codes one send may hold for, about 5.4s
const MaxHoldRepeats = 50

// ConsoleHandler handles one command. args excludes the command name.
type ConsoleHandler func(c *Console, args []string) error

// ConsoleCommand is a named console command
type ConsoleCommand struct {
	Name    string
	Usage   string // Argument synopsis for help
	Help    string
	Handler ConsoleHandler
}

// ConsoleConfig holds the defaults used by the send commands
type ConsoleConfig struct {
	CarrierKHz uint32 // Default 38
	Bits       int    // Default 32

	// ReportFailures also reports captures that failed to decode.
	// They are always reported while debug output is on.
	ReportFailures bool
}

func (c *ConsoleConfig) applyDefaults() {
	if c.CarrierKHz == 0 {
		c.CarrierKHz = protocol.NECCarrierKHz
	}
	if c.Bits <= 0 || c.Bits > 32 {
		c.Bits = protocol.NECBits
	}
}

// Console dispatches text commands to a receiver and transmitter
type Console struct {
	rx  *Receiver
	tx  *Transmitter
	out DebugWriter
	cfg ConsoleConfig

	commands map[string]*ConsoleCommand
	names    []string // Registration order, for help

	receiving bool
	frames    uint32
	failures  uint32
	sent      uint32
	line      []byte

	// OnFrame is called after each decoded frame has been reported
	OnFrame func(res protocol.DecodeResult)
}

// NewConsole creates a console writing its replies to out.
// tx may be nil on receive-only boards.
func NewConsole(rx *Receiver, tx *Transmitter, out DebugWriter, cfg ConsoleConfig) *Console {
	cfg.applyDefaults()
	c := &Console{
		rx:       rx,
		tx:       tx,
		out:      out,
		cfg:      cfg,
		commands: make(map[string]*ConsoleCommand),
		line:     make([]byte, 0, 512),
	}
	c.registerDefaults()
	return c
}

// Register adds a command, replacing any command with the same name
func (c *Console) Register(cmd *ConsoleCommand) {
	if _, exists := c.commands[cmd.Name]; !exists {
		c.names = append(c.names, cmd.Name)
	}
	c.commands[cmd.Name] = cmd
}

func (c *Console) registerDefaults() {
	c.Register(&ConsoleCommand{Name: "help", Help: "list commands", Handler: cmdHelp})
	c.Register(&ConsoleCommand{Name: "recv", Usage: "[off]", Help: "start or stop receiving", Handler: cmdRecv})
	c.Register(&ConsoleCommand{Name: "reset", Help: "discard the current capture", Handler: cmdReset})
	c.Register(&ConsoleCommand{Name: "poll", Help: "attempt a decode now", Handler: cmdPoll})
	c.Register(&ConsoleCommand{Name: "send", Usage: "VALUE [BITS] [KHZ] [REPEATS]", Help: "transmit an NEC frame, then hold it with repeat codes", Handler: cmdSend})
	c.Register(&ConsoleCommand{Name: "sendnec", Usage: "ADDR CMD", Help: "transmit an NEC address/command pair", Handler: cmdSendNEC})
	c.Register(&ConsoleCommand{Name: "repeat", Usage: "[KHZ]", Help: "transmit an NEC repeat code", Handler: cmdRepeat})
	c.Register(&ConsoleCommand{Name: "status", Help: "show receiver counters", Handler: cmdStatus})
	c.Register(&ConsoleCommand{Name: "debug", Usage: "on|off", Help: "toggle decode tracing", Handler: cmdDebug})
	c.Register(&ConsoleCommand{Name: "dump", Help: "dump the event ring", Handler: cmdDump})
	c.Register(&ConsoleCommand{Name: "info", Help: "show firmware constants", Handler: cmdInfo})
}

// HandleLine parses and runs one command line.
// Errors are reported on the console as "error: ..." lines and returned.
func (c *Console) HandleLine(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		c.out("error: " + err.Error())
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		err = ErrUnknownCommand
	} else {
		err = cmd.Handler(c, args[1:])
	}
	if err != nil {
		c.out("error: " + args[0] + ": " + err.Error())
	}
	return err
}

// Poll makes one decode attempt and reports the capture.
// It returns false when no capture was ready.
func (c *Console) Poll() bool {
	res, err := c.rx.TryDecode()
	if errors.Is(err, ErrNotReady) {
		return false
	}

	if err != nil {
		// TryDecode has already re-armed the sampler
		c.failures++
		if c.cfg.ReportFailures || debugEnabled {
			c.report(res, err)
		}
		return true
	}

	c.frames++
	c.report(res, nil)
	c.rx.ResetCapture()
	if c.OnFrame != nil {
		c.OnFrame(res)
	}
	return true
}

// Receiving reports whether the sampler has been started from the console
func (c *Console) Receiving() bool {
	return c.receiving
}

func (c *Console) report(res protocol.DecodeResult, err error) {
	c.line = protocol.AppendFrame(c.line[:0], c.rx.LastCapture(), res, err)
	c.out(string(c.line))
}

// startReceiving arms the sampler and starts its sample clock
func (c *Console) startReceiving() {
	c.rx.StartReceiving()
	c.rx.Attach(GetTime())
	c.receiving = true
}

// transmit runs send with the sampler off, then restarts receiving so our
// own transmission is never reported
func (c *Console) transmit(send func() error) error {
	if c.tx == nil {
		return errors.New("no transmitter configured")
	}
	c.rx.Detach()
	err := send()
	if c.receiving {
		c.startReceiving()
	}
	if err != nil {
		return err
	}
	c.sent++
	return nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, ErrUsage
	}
	return uint32(v), nil
}

func cmdHelp(c *Console, args []string) error {
	for _, name := range c.names {
		cmd := c.commands[name]
		usage := name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		c.out(usage + " - " + cmd.Help)
	}
	return nil
}

func cmdRecv(c *Console, args []string) error {
	if len(args) > 0 {
		if args[0] != "off" {
			return ErrUsage
		}
		c.rx.Detach()
		c.receiving = false
		c.out("ok")
		return nil
	}
	c.startReceiving()
	c.out("ok")
	return nil
}

func cmdReset(c *Console, args []string) error {
	c.rx.ResetCapture()
	c.out("ok")
	return nil
}

func cmdPoll(c *Console, args []string) error {
	if !c.Poll() {
		c.out("not ready")
	}
	return nil
}

func cmdSend(c *Console, args []string) error {
	if len(args) < 1 || len(args) > 4 {
		return ErrUsage
	}
	value, err := parseUint32(args[0])
	if err != nil {
		return err
	}
	bits := c.cfg.Bits
	if len(args) > 1 {
		b, err := parseUint32(args[1])
		if err != nil || b == 0 || b > 32 {
			return ErrUsage
		}
		bits = int(b)
	}
	khz := c.cfg.CarrierKHz
	if len(args) > 2 {
		if khz, err = parseUint32(args[2]); err != nil || khz == 0 {
			return ErrUsage
		}
	}
	var repeats uint32
	if len(args) > 3 {
		if repeats, err = parseUint32(args[3]); err != nil || repeats > MaxHoldRepeats {
			return ErrUsage
		}
	}

	err = c.transmit(func() error {
		return c.tx.TransmitHeld(value, bits, khz, int(repeats))
	})
	if err != nil {
		return err
	}
	if repeats > 0 {
		c.out("sent " + hex32(value) + " bits=" + itoa(bits) + " repeats=" + utoa(repeats))
		return nil
	}
	c.out("sent " + hex32(value) + " bits=" + itoa(bits))
	return nil
}

func cmdSendNEC(c *Console, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	addr, err := parseUint32(args[0])
	if err != nil || addr > 0xFFFF {
		return ErrUsage
	}
	command, err := parseUint32(args[1])
	if err != nil || command > 0xFF {
		return ErrUsage
	}

	value := protocol.MakeNEC(uint16(addr), byte(command))
	err = c.transmit(func() error {
		return c.tx.Transmit(value, protocol.NECBits, c.cfg.CarrierKHz)
	})
	if err != nil {
		return err
	}
	c.out("sent " + hex32(value) + " bits=32")
	return nil
}

func cmdRepeat(c *Console, args []string) error {
	khz := c.cfg.CarrierKHz
	if len(args) > 0 {
		var err error
		if khz, err = parseUint32(args[0]); err != nil || khz == 0 {
			return ErrUsage
		}
	}
	err := c.transmit(func() error {
		return c.tx.TransmitRepeat(khz)
	})
	if err != nil {
		return err
	}
	c.out("sent repeat")
	return nil
}

func cmdStatus(c *Console, args []string) error {
	receiving := "0"
	if c.receiving {
		receiving = "1"
	}
	debug := "0"
	if debugEnabled {
		debug = "1"
	}
	c.out("state=" + c.rx.State().String() +
		" receiving=" + receiving +
		" captures=" + utoa(c.rx.Captures()) +
		" frames=" + utoa(c.frames) +
		" failures=" + utoa(c.failures) +
		" sent=" + utoa(c.sent) +
		" missed=" + utoa(c.rx.Missed()) +
		" debug=" + debug)
	return nil
}

func cmdDebug(c *Console, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	switch args[0] {
	case "on", "1":
		SetDebugEnabled(true)
	case "off", "0":
		SetDebugEnabled(false)
	default:
		return ErrUsage
	}
	c.out("ok")
	return nil
}

func cmdDump(c *Console, args []string) error {
	DumpTimingRing(c.out)
	return nil
}

func cmdInfo(c *Console, args []string) error {
	c.out(string(GetGlobalDictionary().Generate()))
	return nil
}
