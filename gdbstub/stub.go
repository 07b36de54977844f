package gdbstub

import (
	"bufio"
	"net"
	"sync"

	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/simerr"
)

// command is one decoded GDB request, queued by the network goroutine for
// the CPU thread to act on.
type command struct {
	payload string
	resp    chan<- string // reply channel; a 'c' reply is sent later by CheckBreakpointHit, and 'k' closes it without a reply
}

// maxBreakpoints mirrors simavr's fixed-size breakpoint table; spec §6
// calls for 32 entries.
const maxBreakpoints = 32

// Stub is a single-client GDB remote-serial server bound to one MCU. Only
// one client is supported at a time (spec §6); connections are served one
// after another, so a second client is not accepted until the first
// disconnects.
type Stub struct {
	addr string

	mu          sync.Mutex
	pending     []command
	breakpoints [maxBreakpoints]uint32
	bpLen       [maxBreakpoints]uint32
	bpValid     [maxBreakpoints]bool
	attached    bool

	// contResp holds the response channel of an in-flight 'c' (continue)
	// request: no reply is sent when the command is handled, only later
	// when CheckBreakpointHit actually stops the MCU.
	contResp chan<- string

	conn   net.Conn
	connMu sync.Mutex
}

// New creates a stub that will listen on addr (conventionally ":1234").
func New(addr string) *Stub {
	return &Stub{addr: addr}
}

// ListenAndServe blocks accepting connections until Accept returns an
// error, which it treats as a clean shutdown and returns nil; each accepted
// connection is served synchronously, since spec §6 only ever expects one
// client.
func (s *Stub) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return simerr.Errorf(simerr.MalformedPacket, "gdbstub: listen on %s: %v", s.addr, err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return nil
		}
		s.serve(conn)
	}
}

func (s *Stub) serve(conn net.Conn) {
	s.connMu.Lock()
	if s.conn != nil {
		s.connMu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.connMu.Unlock()

	logx.Log("gdbstub", "client connected from %s", conn.RemoteAddr())
	s.mu.Lock()
	s.attached = true
	s.mu.Unlock()

	r := bufio.NewReader(conn)
	for {
		payload, ok, err := readPacket(r)
		if err != nil {
			break
		}
		if !ok {
			conn.Write([]byte("-"))
			continue
		}
		conn.Write([]byte("+"))

		respCh := make(chan string, 1)
		s.enqueue(command{payload: payload, resp: respCh})
		reply, open := <-respCh
		if open {
			conn.Write([]byte(encodePacket(reply)))
		}
	}

	s.connMu.Lock()
	s.conn = nil
	s.connMu.Unlock()
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
	conn.Close()
	logx.Log("gdbstub", "client disconnected")
}

func (s *Stub) enqueue(c command) {
	s.mu.Lock()
	s.pending = append(s.pending, c)
	s.mu.Unlock()
}

// Attached reports whether a client is currently connected.
func (s *Stub) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// HitBreakpoint reports whether pc (a word address) matches a currently
// installed breakpoint.
func (s *Stub) HitBreakpoint(pc uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, valid := range s.bpValid {
		if valid && s.breakpoints[i] == pc {
			return true
		}
	}
	return false
}

