package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"irnec/config"
	"irnec/host/mcu"
	"irnec/host/serial"
	"irnec/protocol"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	configFile = flag.String("config", "", "Board profile (JSON) for send defaults")
	replayFile = flag.String("replay", "", "Re-decode a captured console log and exit")
	listen     = flag.Bool("recv", true, "Start receiving on connect")
	printCfg   = flag.Bool("print-config", false, "Print the default board profile and exit")
)

const boardKey = "$board"

type board struct {
	mcu     *mcu.MCU
	profile *config.BoardConfig
}

func boardFrom(c *ishell.Context) *board {
	return c.Get(boardKey).(*board)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *printCfg {
		if err := printDefaultConfig(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *replayFile != "" {
		if err := replay(*replayFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	profile := config.DefaultConfig()
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if profile, err = config.LoadConfig(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", *configFile, err)
			os.Exit(1)
		}
	}

	m := mcu.NewMCU()
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	fmt.Printf("Connecting to board on %s...\n", *device)
	if err := m.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	ctx := context.Background()
	dict, err := m.RetrieveDictionary(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected: %s on %s\n", dict.Version, dict.MCU)
	if *listen {
		if err := m.StartReceiving(ctx); err != nil {
			glog.Errorf("recv: %v", err)
		}
	}

	shell := ishell.New()
	shell.Set(boardKey, &board{mcu: m, profile: profile})
	shell.SetPrompt("ir> ")
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}

	go printFrames(shell, m.Frames())

	shell.Run()
}

// printDefaultConfig writes a profile to start a board.json from
func printDefaultConfig(w io.Writer) error {
	data, err := config.DefaultConfigJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func printFrames(shell *ishell.Shell, frames <-chan *protocol.Frame) {
	for f := range frames {
		shell.Println(describeFrame(f))
	}
	shell.Println("board disconnected")
}

func describeFrame(f *protocol.Frame) string {
	switch {
	case f.Error != "":
		return fmt.Sprintf("%s capture: %s (%d pairs)", f.Protocol, f.Error, len(f.Data))
	case f.Repeat:
		return "NEC repeat"
	}

	v, err := f.DecodedValue()
	if err != nil {
		return err.Error()
	}
	s := fmt.Sprintf("%s 0x%08X bits=%d", f.Protocol, v, f.Bits)
	if f.Bits == protocol.NECBits {
		if valid, addr, cmd := protocol.SplitNEC(v); valid {
			s += fmt.Sprintf(" address=0x%04X command=0x%02X", addr, cmd)
		} else {
			s += " (command check failed)"
		}
	}
	return s
}

// forward runs a console line on the board and prints the reply
func forward(c *ishell.Context, line string) {
	lines, err := boardFrom(c).mcu.Command(context.Background(), line)
	for _, l := range lines {
		if !strings.HasPrefix(l, "error: ") {
			c.Println(l)
		}
	}
	if err != nil {
		c.Err(err)
	}
}

func parseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

var commands = []*ishell.Cmd{
	{
		Name: "recv",
		Help: "start receiving",
		Func: func(c *ishell.Context) { forward(c, "recv") },
	},
	{
		Name: "stop",
		Help: "stop receiving",
		Func: func(c *ishell.Context) { forward(c, "recv off") },
	},
	{
		Name: "send",
		Help: "VALUE [BITS] [KHZ] [REPEATS] - transmit a raw NEC value, held for REPEATS repeat codes",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 || len(c.Args) > 4 {
				c.Err(fmt.Errorf("usage: send VALUE [BITS] [KHZ] [REPEATS]"))
				return
			}
			profile := boardFrom(c).profile
			value, err := parseUint(c.Args[0], 32)
			if err != nil {
				c.Err(err)
				return
			}
			bits := uint64(profile.Receiver.Bits)
			khz := uint64(profile.Transmitter.CarrierKHz)
			if len(c.Args) > 1 {
				if bits, err = parseUint(c.Args[1], 8); err != nil {
					c.Err(err)
					return
				}
			}
			if len(c.Args) > 2 {
				if khz, err = parseUint(c.Args[2], 32); err != nil {
					c.Err(err)
					return
				}
			}
			line := fmt.Sprintf("send 0x%08X %d %d", value, bits, khz)
			if len(c.Args) > 3 {
				repeats, err := parseUint(c.Args[3], 8)
				if err != nil {
					c.Err(err)
					return
				}
				line += fmt.Sprintf(" %d", repeats)
			}
			forward(c, line)
		},
	},
	{
		Name: "sendnec",
		Help: "ADDRESS COMMAND - transmit an NEC address/command pair",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: sendnec ADDRESS COMMAND"))
				return
			}
			addr, err := parseUint(c.Args[0], 16)
			if err != nil {
				c.Err(err)
				return
			}
			cmd, err := parseUint(c.Args[1], 8)
			if err != nil {
				c.Err(err)
				return
			}
			if err := boardFrom(c).mcu.SendNEC(context.Background(), uint16(addr), byte(cmd)); err != nil {
				c.Err(err)
				return
			}
			c.Printf("sent 0x%08X\n", protocol.MakeNEC(uint16(addr), byte(cmd)))
		},
	},
	{
		Name: "repeat",
		Help: "[KHZ] - transmit an NEC repeat code",
		Func: func(c *ishell.Context) {
			forward(c, strings.TrimSpace("repeat "+strings.Join(c.Args, " ")))
		},
	},
	{
		Name: "status",
		Help: "show receiver state and counters",
		Func: func(c *ishell.Context) { forward(c, "status") },
	},
	{
		Name: "debug",
		Help: "on|off - toggle tolerance tracing on the board",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: debug on|off"))
				return
			}
			forward(c, "debug "+c.Args[0])
		},
	},
	{
		Name: "dump",
		Help: "print the board's timing event ring",
		Func: func(c *ishell.Context) { forward(c, "dump") },
	},
	{
		Name: "info",
		Help: "print the board's constants",
		Func: func(c *ishell.Context) {
			dict, err := boardFrom(c).mcu.RetrieveDictionary(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("version=%s mcu=%s\n", dict.Version, dict.MCU)
			for _, line := range sortedConfig(dict.Config) {
				c.Println("  " + line)
			}
		},
	},
	{
		Name: "profile",
		Help: "print the board profile used for send defaults",
		Func: func(c *ishell.Context) {
			data, err := boardFrom(c).profile.JSON()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(data))
		},
	},
	{
		Name: "raw",
		Help: "LINE... - send a console line as is",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("usage: raw LINE"))
				return
			}
			forward(c, strings.Join(c.Args, " "))
		},
	},
}
