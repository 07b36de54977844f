// Command gosimavr is the simulator's command-line front end: it loads a
// firmware image onto a named MCU variant and either runs it to completion
// or hands control to an attached GDB client, per spec §6's external
// interfaces.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosimavr/gosimavr/consolebridge"
	"github.com/gosimavr/gosimavr/core/mcu"
	"github.com/gosimavr/gosimavr/gdbstub"
	"github.com/gosimavr/gosimavr/instance"
	"github.com/gosimavr/gosimavr/loader"
	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/peripherals/usart"
	"github.com/gosimavr/gosimavr/telemetry"
	"github.com/gosimavr/gosimavr/variant"
)

var (
	mcuName      string
	fcpu         uint32
	trace        bool
	gdb          bool
	verbose      bool
	irqGraph     string
	statsAddr    string
	statsOn      bool
	console      bool
	seed         int64
	randomiseRAM bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gosimavr <firmware>",
		Short: "Simulate an 8-bit AVR microcontroller running the given firmware",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&mcuName, "mcu", "m", "atmega328p", "MCU variant ("+strings.Join(variant.Names(), ", ")+")")
	flags.Uint32VarP(&fcpu, "freq", "f", 0, "override the variant's default clock frequency, in Hz")
	flags.BoolVarP(&trace, "trace", "t", false, "log every executed instruction")
	flags.BoolVarP(&gdb, "gdb", "g", false, "wait for a GDB client on :1234 instead of running immediately")
	flags.BoolVarP(&verbose, "verbose", "v", false, "echo the 50 most recent diagnostic log entries to stderr once a second")
	flags.StringVar(&irqGraph, "irq-graph", "", "write a Graphviz dot dump of the IRQ wiring to this file and exit")
	flags.BoolVar(&statsOn, "stats", false, "serve a statsview Go-runtime dashboard and log simulated cycles per second")
	flags.StringVar(&statsAddr, "stats-addr", "localhost:18066", "address for --stats's dashboard")
	flags.BoolVar(&console, "console", false, "bridge the MCU's usart0 to the host terminal (raw mode)")
	flags.Int64Var(&seed, "seed", 0, "seed for --randomize-ram")
	flags.BoolVar(&randomiseRAM, "randomize-ram", false, "fill data space with random bytes on reset, instead of zeroing it")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	firmwarePath := args[0]

	ins := instance.New(seed)
	ins.RandomiseRAM = randomiseRAM

	m, err := variant.New(mcuName, ins)
	if err != nil {
		return err
	}
	if fcpu != 0 {
		m.FCPU = fcpu
	}

	fw, err := loadFirmware(firmwarePath)
	if err != nil {
		return err
	}
	if len(fw.FlashBytes) > 0 {
		if err := m.LoadFlash(fw.FlashBytes); err != nil {
			return err
		}
	}

	if irqGraph != "" {
		f, err := os.Create(irqGraph)
		if err != nil {
			return err
		}
		defer f.Close()
		m.IRQBus.DumpGraph(f)
		return nil
	}

	if verbose {
		go tailLogPeriodically()
	}

	if statsOn {
		dash := telemetry.New(m, statsAddr)
		dash.Start()
		defer dash.Stop()
	}

	if console {
		if err := attachConsole(m); err != nil {
			return err
		}
	}

	if gdb {
		return runWithGDB(m)
	}
	return runHeadless(m)
}

func loadFirmware(path string) (loader.Firmware, error) {
	if strings.EqualFold(filepath.Ext(path), ".hex") {
		return loader.LoadIntelHEX(path)
	}
	return loader.LoadRaw(path)
}

func attachConsole(m *mcu.MCU) error {
	for _, p := range m.Peripherals.All() {
		if u, ok := p.(*usart.USART); ok {
			bridge, err := consolebridge.New(u)
			if err != nil {
				return err
			}
			bridge.Start()
			return nil
		}
	}
	return fmt.Errorf("gosimavr: --console requested but %s has no usart peripheral", m.Name)
}

func runHeadless(m *mcu.MCU) error {
	m.State = mcu.StateRunning
	for m.State == mcu.StateRunning || m.State == mcu.StateSleeping {
		if trace {
			logx.Log("trace", "pc=%#06x cycle=%d state=%s", m.CPU.PC, m.CPU.Cycle, m.State)
		}
		if err := m.RunTick(); err != nil {
			m.CrashDump(os.Stderr)
			return err
		}
	}
	if m.State == mcu.StateCrashed {
		m.CrashDump(os.Stderr)
		return m.CrashErr
	}
	return nil
}

func runWithGDB(m *mcu.MCU) error {
	stub := gdbstub.New(":1234")
	m.AttachGDB(true)

	go func() {
		if err := stub.ListenAndServe(); err != nil {
			logx.Log("gdbstub", "listener stopped: %v", err)
		}
	}()

	m.State = mcu.StateStopped
	for m.State != mcu.StateDone && m.State != mcu.StateCrashed {
		stub.ServiceOnce(m)
		if m.State == mcu.StateRunning || m.State == mcu.StateSleeping || m.State == mcu.StateStep {
			if err := m.RunTick(); err != nil {
				m.CrashDump(os.Stderr)
				return err
			}
		}
		stub.CheckBreakpointHit(m)
	}
	return nil
}

// tailLogPeriodically writes the 50 most recent central-log entries to
// stderr every second; logx has no push-based subscription, so this is the
// teacher-style ring-buffer-drain pattern applied on a timer instead. An
// entry still among the 50 most recent is written again on the next tick.
func tailLogPeriodically() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		logx.Central().Tail(os.Stderr, 50)
	}
}
