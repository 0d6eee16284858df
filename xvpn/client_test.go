package xvpn

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yllada/xvpnctl/common"
)

// fakeTransport replaces the helper process in tests: sent requests are
// recorded and test code feeds the receive queue directly.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	sentCh  chan string
	queue   chan string
	done    chan struct{}
	once    sync.Once
	err     error
	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sentCh: make(chan string, 64),
		queue:  make(chan string, 64),
		done:   make(chan struct{}),
	}
}

func (f *fakeTransport) Send(jsonText string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, jsonText)
	f.mu.Unlock()
	f.sentCh <- jsonText
	return nil
}

func (f *fakeTransport) TryReceive() (string, bool) {
	select {
	case text := <-f.queue:
		return text, true
	default:
		return "", false
	}
}

func (f *fakeTransport) Done() <-chan struct{} { return f.done }

func (f *fakeTransport) Err() error { return f.err }

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

// deliver queues one helper message for the dispatch loop to pick up.
func (f *fakeTransport) deliver(text string) { f.queue <- text }

func (f *fakeTransport) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fail simulates a fatal transport error.
func (f *fakeTransport) fail(err error) {
	f.err = err
	f.once.Do(func() { close(f.done) })
}

type quietLogger struct{}

func (quietLogger) Debug(msg string, args ...interface{}) {}
func (quietLogger) Info(msg string, args ...interface{})  {}
func (quietLogger) Warn(msg string, args ...interface{})  {}
func (quietLogger) Error(msg string, args ...interface{}) {}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c := NewClient(ft, quietLogger{}, 500*time.Millisecond)
	t.Cleanup(func() { c.Close() })
	return c, ft
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestClient_HandshakeFiresConnectedOnce(t *testing.T) {
	c, ft := newTestClient(t)

	token, ch := c.Subscribe(CategoryConnected)
	defer c.Unsubscribe(CategoryConnected, token)

	if _, ok := c.HelperVersion(); ok {
		t.Fatal("helper version known before handshake")
	}

	ft.deliver(`{"connected":true,"app_version":"9.1.2"}`)

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("connected notification never fired")
	}

	version, ok := c.HelperVersion()
	if !ok || version != "9.1.2" {
		t.Errorf("HelperVersion() = (%q, %v), want (9.1.2, true)", version, ok)
	}

	// A repeated handshake updates the version but does not fire again.
	ft.deliver(`{"connected":true,"app_version":"9.1.3"}`)
	waitFor(t, func() bool {
		v, _ := c.HelperVersion()
		return v == "9.1.3"
	}, "second handshake never applied")

	select {
	case <-ch:
		t.Error("connected notification fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_WaitUntilReady(t *testing.T) {
	c, ft := newTestClient(t)

	errCh := make(chan error, 1)
	go func() { errCh <- c.WaitUntilReady(2 * time.Second) }()

	ft.deliver(`{"connected":true,"app_version":"9.1.2"}`)

	if err := <-errCh; err != nil {
		t.Fatalf("WaitUntilReady() = %v", err)
	}

	// Already-ready calls return immediately.
	if err := c.WaitUntilReady(10 * time.Millisecond); err != nil {
		t.Errorf("second WaitUntilReady() = %v", err)
	}
}

func TestClient_WaitUntilReadyTimeout(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.WaitUntilReady(30 * time.Millisecond)
	if !errors.Is(err, common.ErrTimeout) {
		t.Errorf("WaitUntilReady() = %v, want ErrTimeout", err)
	}
}

func TestClient_CallAndWaitSubscribesBeforeSend(t *testing.T) {
	c, ft := newTestClient(t)

	// The reply lands the instant the request is sent. Because the
	// subscription exists first, the wait must still succeed.
	go func() {
		<-ft.sentCh
		ft.deliver(`{"info":{"state":"connected"}}`)
	}()

	ev, err := c.CallAndWait(MethodGetStatus, nil, CategoryFullStatus, 2*time.Second)
	if err != nil {
		t.Fatalf("CallAndWait() = %v", err)
	}
	if ev.Status.State != StateConnected {
		t.Errorf("event state = %v, want connected", ev.Status.State)
	}
}

func TestClient_CallAndWaitTimeoutCleansUp(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CallAndWait(MethodGetStatus, nil, CategoryFullStatus, 30*time.Millisecond)
	if !errors.Is(err, common.ErrTimeout) {
		t.Fatalf("CallAndWait() = %v, want ErrTimeout", err)
	}

	c.subs.mu.Lock()
	remaining := len(c.subs.subs[CategoryFullStatus])
	c.subs.mu.Unlock()
	if remaining != 0 {
		t.Errorf("%d subscriptions left after timeout, want 0", remaining)
	}
}

func TestClient_CallAndWaitTransportFailure(t *testing.T) {
	c, ft := newTestClient(t)

	wantErr := errors.New("helper crashed")
	go func() {
		<-ft.sentCh
		ft.fail(wantErr)
	}()

	_, err := c.CallAndWait(MethodGetStatus, nil, CategoryFullStatus, 2*time.Second)
	if !errors.Is(err, wantErr) {
		t.Errorf("CallAndWait() = %v, want %v", err, wantErr)
	}
}

func TestClient_RequestWireFormat(t *testing.T) {
	c, ft := newTestClient(t)

	if err := c.send(MethodGetStatus, nil); err != nil {
		t.Fatalf("send() = %v", err)
	}

	sent := ft.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}

	for _, fragment := range []string{
		`"jsonrpc":"2.0"`,
		`"method":"XVPN.GetStatus"`,
		`"params":{}`,
		`"id":1`,
	} {
		if !strings.Contains(sent[0], fragment) {
			t.Errorf("request %s missing %s", sent[0], fragment)
		}
	}
}
