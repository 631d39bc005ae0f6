package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// requestTimeout bounds how long a connected client may take to send its
// request line.
const requestTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers clients on listener until ctx is cancelled or the listener
// is closed. Unknown commands are rejected before reaching handler. Serve
// waits for in-flight connections before returning.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			_ = writeMessage(conn, serveConn(ctx, conn, handler))
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) Response {
	if err := conn.SetReadDeadline(time.Now().Add(requestTimeout)); err != nil {
		return failure("set deadline", err)
	}

	line, err := readLine(conn)
	if err != nil {
		return failure("read request", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return failure("decode request", err)
	}
	if !KnownCommand(req.Command) {
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}

	return handler.Handle(ctx, req)
}
