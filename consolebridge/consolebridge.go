// Package consolebridge connects a peripherals/usart.USART to the host's
// own stdin/stdout, for the CLI's --console flag (spec §6's UART bridge).
// It puts the host terminal into raw mode via github.com/pkg/term so
// firmware sees every keystroke immediately, unbuffered and without local
// echo, the way a real serial terminal emulator would behave.
package consolebridge

import (
	"os"

	"github.com/pkg/term"

	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/peripherals/usart"
)

// Bridge pumps bytes between a USART and the host terminal in both
// directions: input on its own goroutine, output from an IRQ hook.
type Bridge struct {
	u   *usart.USART
	tty *term.Term

	stop chan struct{}
}

// New puts the controlling terminal into raw mode and wires it to u. Call
// Start to begin pumping; call Close to restore the terminal.
func New(u *usart.USART) (*Bridge, error) {
	tty, err := term.Open(os.Stdin.Name(), term.RawMode)
	if err != nil {
		return nil, err
	}
	return &Bridge{u: u, tty: tty, stop: make(chan struct{})}, nil
}

// Start begins pumping in both directions: a goroutine feeds host keystrokes
// into the USART's input, and a hook on the USART's output IRQ writes the
// bytes the firmware sends out to the host's stdout.
func (b *Bridge) Start() {
	b.wireOutput()
	go b.pumpInput()
}

// wireOutput hooks the USART's output IRQ straight to stdout; split out from
// Start so it can be exercised without the input side, which needs a real
// tty.
func (b *Bridge) wireOutput() {
	outputIRQ := b.u.GetIRQ(usart.IRQOutput)
	irq.RegisterNotify(outputIRQ, func(_ *irq.IRQ, value uint32, _ any) {
		os.Stdout.Write([]byte{byte(value)})
	}, nil)
}

func (b *Bridge) pumpInput() {
	buf := make([]byte, 1)
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		n, err := b.tty.Read(buf)
		if err != nil {
			logx.Log("consolebridge", "read: %v", err)
			return
		}
		if n == 1 {
			b.u.DeliverInput(buf[0])
		}
	}
}

// Close restores the host terminal's original mode and stops the input
// pump goroutine.
func (b *Bridge) Close() error {
	close(b.stop)
	b.tty.Restore()
	return b.tty.Close()
}
