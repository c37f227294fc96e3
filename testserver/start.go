package testserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
)

const listenerTimeout = time.Second * 10

// Server is a running target server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	done       chan error
}

// Start listens on the given port (0 picks a free one) and serves NewHandler(logger) in the
// background. It does not return until the listener is answering requests.
func Start(port int, logger framework.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s := &Server{
		httpServer: &http.Server{Handler: NewHandler(logger), ReadHeaderTimeout: time.Second * 10},
		listener:   listener,
		done:       make(chan error, 1),
	}
	go func() {
		err := s.httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	if err := AwaitListener(s.URL(), listenerTimeout); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// URL is the base URL of the server, using the loopback address.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.listener.Addr().(*net.TCPAddr).Port)
}

// Close stops the server immediately.
func (s *Server) Close() error {
	err := s.httpServer.Close()
	if serveErr := <-s.done; serveErr != nil && err == nil {
		err = serveErr
	}
	return err
}

// Shutdown stops the server after in-flight requests complete, or when ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if serveErr := <-s.done; serveErr != nil && err == nil {
		err = serveErr
	}
	return err
}

// AwaitListener polls the base URL with HEAD requests until it answers with a 200 status.
func AwaitListener(baseURL string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect listener at %s", baseURL)
		case <-ticker.C:
			resp, err := http.DefaultClient.Head(baseURL + "/")
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
	}
}
