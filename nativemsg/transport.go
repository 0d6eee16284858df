package nativemsg

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/yllada/xvpnctl/common"
)

// Transport owns the helper subprocess and exchanges framed JSON messages
// with it. One reader goroutine decodes frames and enqueues them in FIFO
// order; sends are serialized by a write mutex so concurrent callers cannot
// interleave header and payload bytes on the shared stream.
//
// The helper is spawned once per Transport and never respawned.
type Transport struct {
	logger  common.Logger
	maxSize int

	cmd    *exec.Cmd
	writer io.Writer
	stdin  io.WriteCloser
	reader io.Reader

	writeMu sync.Mutex

	queue chan string
	done  chan struct{}

	errMu    sync.Mutex
	fatalErr error
	closed   bool
}

// NewTransport creates a transport. maxSize bounds the accepted frame
// payload; zero selects common.MaxMessageSize.
func NewTransport(logger common.Logger, maxSize int) *Transport {
	if logger == nil {
		logger = common.GetLogger()
	}
	if maxSize <= 0 {
		maxSize = common.MaxMessageSize
	}
	return &Transport{
		logger:  logger,
		maxSize: maxSize,
		queue:   make(chan string, common.ReceiveQueueSize),
		done:    make(chan struct{}),
	}
}

// Start spawns the helper described by the manifest, passing the manifest
// file path and the first allowed extension as positional arguments, and
// wires its stdio. exec.Cmd passes arguments directly to the process with
// no shell involved, so no quoting is required. Launch failure is fatal.
func (t *Transport) Start(m *common.ManifestData) error {
	cmd := exec.Command(m.Path, m.SourcePath, m.FirstExtension())

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return common.WrapError(err, "failed to open helper stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return common.WrapError(err, "failed to open helper stdout")
	}

	if err := cmd.Start(); err != nil {
		return common.WrapError(err, "failed to start helper "+m.Path)
	}
	t.logger.Info("Helper started: %s (pid %d)", m.Path, cmd.Process.Pid)

	t.cmd = cmd
	t.stdin = stdin
	t.writer = stdin
	t.reader = stdout

	go t.readLoop()
	return nil
}

// StartPipe attaches the transport to existing streams instead of spawning
// a process. Used by tests and by callers that manage the helper
// themselves.
func (t *Transport) StartPipe(r io.Reader, w io.Writer) {
	t.reader = r
	t.writer = w
	if wc, ok := w.(io.WriteCloser); ok {
		t.stdin = wc
	}
	go t.readLoop()
}

// Send writes one framed JSON message to the helper. Sends are exclusive:
// the frame goes out atomically with respect to other senders.
func (t *Transport) Send(jsonText string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.writer == nil {
		return common.ErrTransportClosed
	}
	select {
	case <-t.done:
		return common.ErrTransportClosed
	default:
	}

	t.logger.Debug("-> %s", jsonText)
	return WriteFrame(t.writer, []byte(jsonText))
}

// TryReceive pops the next decoded message without blocking. Ordering is
// FIFO in the order frames were read off the wire.
func (t *Transport) TryReceive() (string, bool) {
	select {
	case msg := <-t.queue:
		return msg, true
	default:
		return "", false
	}
}

// Done is closed when the receive loop has terminated, either because the
// helper exited or because a fatal framing error occurred.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err reports the fatal transport error, if any. It is nil after a clean
// helper shutdown.
func (t *Transport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.fatalErr
}

// Close releases the outgoing stream. The helper sees EOF on its stdin and
// is expected to exit on its own; there is no kill and no respawn.
func (t *Transport) Close() error {
	t.errMu.Lock()
	if t.closed {
		t.errMu.Unlock()
		return nil
	}
	t.closed = true
	t.errMu.Unlock()

	if t.stdin != nil {
		return t.stdin.Close()
	}
	return nil
}

// readLoop runs for the life of the helper process: read one frame, decode
// it as UTF-8 JSON text, enqueue. It stops on clean EOF (helper exited
// between messages) or on the first fatal framing error.
func (t *Transport) readLoop() {
	defer close(t.done)

	for {
		payload, err := ReadFrame(t.reader, t.maxSize)
		if err == io.EOF {
			t.logger.Debug("Helper stream closed")
			break
		}
		if err != nil {
			t.setFatal(fmt.Errorf("framing error: %w", err))
			t.logger.Error("Framing error, receive loop stopping: %v", err)
			break
		}

		t.queue <- string(payload)
	}

	t.waitHelper()
}

// waitHelper reaps the helper process and logs its exit disposition.
func (t *Transport) waitHelper() {
	if t.cmd == nil {
		return
	}

	err := t.cmd.Wait()
	if err == nil {
		t.logger.Info("Helper exited normally")
		return
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		t.logger.Error("Helper exited with code %d", exitErr.ExitCode())
	} else {
		t.logger.Error("Helper wait failed: %v", err)
	}
}

func (t *Transport) setFatal(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.fatalErr == nil {
		t.fatalErr = err
	}
}
