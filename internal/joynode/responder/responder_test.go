package responder

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/loop"
	"github.com/autopeer-io/joynode/pkg/options"
)

func startResponder(t *testing.T) (*Responder, *core.SnapshotStore) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	l := loop.New(logr.Discard())
	store := core.NewSnapshotStore()

	r := New(&options.ResponderOptions{Addr: "127.0.0.1:0", ReadTimeout: 2 * time.Second}, l, store)
	if err := r.Listen(); err != nil {
		t.Fatalf("Listen() err=%v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Start(ctx)
	}()
	go func() {
		for {
			select {
			case <-l.Ready():
				l.Poll()
			case <-ctx.Done():
				return
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r, store
}

func dial(t *testing.T, r *Responder) *net.TCPConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", r.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn.(*net.TCPConn)
}

func TestServesPage(t *testing.T) {
	r, store := startResponder(t)
	store.Store(&core.Snapshot{
		JoystickX:      500,
		JoystickY:      500,
		Direction:      core.Southwest,
		Button1Message: "Button 1 was pressed!",
		Button2Message: "No event on button 2",
	})

	conn := dial(t, r)
	defer conn.Close()

	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\nHost: node\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/html; charset=UTF-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if !resp.Close {
		t.Error("response does not announce Connection: close")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if cl, _ := strconv.Atoi(resp.Header.Get("Content-Length")); cl != len(body) {
		t.Errorf("Content-Length %d, body %d bytes", cl, len(body))
	}
	for _, want := range []string{"Button 1 was pressed!", "Direction: Southwest", "X: 500"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q", want)
		}
	}

	// The server closes after one response.
	if n, _ := conn.Read(make([]byte, 1)); n != 0 {
		t.Error("connection still open after response")
	}
}

func TestPeerCloseWithoutRequest(t *testing.T) {
	r, _ := startResponder(t)

	conn := dial(t, r)
	defer conn.Close()

	if err := conn.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite: %v", err)
	}

	got, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("server wrote %q to a connection that sent nothing", got)
	}
}

func TestAnyPayloadGetsPage(t *testing.T) {
	r, _ := startResponder(t)

	conn := dial(t, r)
	defer conn.Close()

	_, _ = conn.Write([]byte("x"))
	got, _ := io.ReadAll(conn)
	if !strings.HasPrefix(string(got), "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("response %q", got)
	}
}

func TestShutdownClosesPendingConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The loop is never polled, as after the agent stopped ticking.
	l := loop.New(logr.Discard())
	r := New(&options.ResponderOptions{Addr: "127.0.0.1:0"}, l, core.NewSnapshotStore())
	if err := r.Listen(); err != nil {
		t.Fatalf("Listen() err=%v", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Start(ctx)
	}()

	idle := dial(t, r)
	defer idle.Close()
	posted := dial(t, r)
	defer posted.Close()
	if _, err := posted.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for l.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("request was never posted to the loop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	for name, conn := range map[string]*net.TCPConn{"idle": idle, "posted": posted} {
		got, err := io.ReadAll(conn)
		if err != nil {
			t.Errorf("%s: read err=%v, want EOF", name, err)
		}
		if len(got) != 0 {
			t.Errorf("%s: got %q after shutdown", name, got)
		}
	}
	if r.Ready() {
		t.Error("Ready() after shutdown")
	}
}

func TestBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	r := New(&options.ResponderOptions{Addr: ln.Addr().String()}, loop.New(logr.Discard()), core.NewSnapshotStore())
	if err := r.Listen(); err == nil {
		t.Fatal("expected bind error on a used port")
	}
	if r.Ready() {
		t.Fatal("Ready() after failed bind")
	}
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start() must return the bind error")
	}
}

func TestFormatResponse(t *testing.T) {
	got := string(FormatResponse([]byte("hello")))
	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"Content-Length: 5\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"hello"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
