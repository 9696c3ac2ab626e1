//go:build rp2040

package main

import (
	_ "embed"
	"irnec/config"
	"irnec/core"
	"machine"
	"strconv"
	"time"
)

//go:embed board.json
var boardJSON []byte

var (
	console *core.Console
	line    [128]byte
	lineLen int

	// Debug counters
	linesReceived uint32
	overruns      uint32
)

func main() {
	// Clear any watchdog state left from a previous reset
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitClock()

	core.SetDebugWriter(writeLine)
	core.InitAsyncDebug()

	profile, err := config.LoadConfig(boardJSON)
	if err != nil {
		writeLine("error: board.json: " + err.Error())
		profile = config.DefaultConfig()
	}
	registerBoardConstants(profile)

	core.SetGPIODriver(NewRPGPIODriver())
	core.SetSampleTimerDriver(NewRP2040AlarmSampler())
	if profile.Transmitter.Backend == config.CarrierPIO {
		core.SetCarrierDriver(NewRP2040PIOCarrier(0, 0))
	} else {
		core.SetCarrierDriver(NewRP2040PWMCarrier())
	}

	rx := core.NewReceiver(profile.ReceiverSettings())
	if err := rx.Configure(); err != nil {
		writeLine("error: receiver: " + err.Error())
	}
	tx := core.NewTransmitter(profile.TransmitterSettings())

	console = core.NewConsole(rx, tx, writeLine, profile.ConsoleSettings())
	if profile.StatusLED != "" {
		pin, _ := config.ParsePin(profile.StatusLED)
		console.OnFrame = NewStatusLED(machine.Pin(pin)).Flash
	}

	console.Register(&core.ConsoleCommand{
		Name: "usb",
		Help: "console line counters",
		Handler: func(c *core.Console, args []string) error {
			writeLine("lines=" + strconv.FormatUint(uint64(linesReceived), 10) +
				" overruns=" + strconv.FormatUint(uint64(overruns), 10))
			return nil
		},
	})

	// Receive from power-up; the host can turn it off with "recv off"
	console.HandleLine("recv")

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					lineLen = 0
					core.DebugAsync("error: recovered from panic in main loop")
				}
			}()

			UpdateSystemTime()
			core.ProcessTimers()
			readLines()
			console.Poll()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// readLines feeds complete console lines from USB to the console
func readLines() {
	for USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			return
		}
		switch b {
		case '\r':
		case '\n':
			if lineLen > 0 {
				linesReceived++
				console.HandleLine(string(line[:lineLen]))
			}
			lineLen = 0
		default:
			if lineLen == len(line) {
				// Drop overlong lines entirely
				overruns++
				lineLen = 0
				core.DebugAsync("error: console line too long")
				continue
			}
			line[lineLen] = b
			lineLen++
		}
	}
}

// writeLine is the console and debug output
func writeLine(s string) {
	USBWriteBytes([]byte(s))
	USBWriteBytes([]byte("\r\n"))
}

// registerBoardConstants publishes the wiring in the info reply
func registerBoardConstants(profile *config.BoardConfig) {
	rxPin, _ := config.ParsePin(profile.Receiver.Pin)
	txPin, _ := config.ParsePin(profile.Transmitter.Pin)
	core.RegisterConstant("BOARD", profile.Board)
	core.RegisterConstant("IR_RX_PIN", core.GPIOPin(rxPin))
	core.RegisterConstant("IR_RX_ACTIVE_HIGH", profile.Receiver.ActiveHigh)
	core.RegisterConstant("IR_TX_PIN", core.CarrierPin(txPin))
	core.RegisterConstant("IR_CARRIER_KHZ", profile.Transmitter.CarrierKHz)
	core.RegisterConstant("IR_CARRIER", profile.Transmitter.Backend)
}
