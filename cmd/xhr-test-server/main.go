// Command xhr-test-server runs the target server that the xhr contract tests send requests to.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/testserver"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

const shutdownTimeout = time.Second * 5

var exitFunc = os.Exit

type serverParams struct {
	port       int
	logFile    string
	logMaxSize int
	quiet      bool
}

func newRootCommand(params *serverParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xhr-test-server",
		Short:         "Target server for the xhr contract tests",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.port < 1 || params.port > 65535 {
				return fmt.Errorf("invalid port %d", params.port)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, params, cmd.OutOrStderr())
		},
	}
	cmd.Flags().IntVar(&params.port, "port", 8000, "port to listen on")
	cmd.Flags().StringVar(&params.logFile, "log-file", "", "also write the request log to this file, rotating it by size")
	cmd.Flags().IntVar(&params.logMaxSize, "log-max-size", 10, "size in megabytes at which the log file is rotated")
	cmd.Flags().BoolVarP(&params.quiet, "quiet", "q", false, "do not log requests to the console")
	return cmd
}

func logWriter(params *serverParams, console io.Writer) (io.Writer, func()) {
	var writers []io.Writer
	if !params.quiet {
		writers = append(writers, console)
	}
	closer := func() {}
	if params.logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   params.logFile,
			MaxSize:    params.logMaxSize,
			MaxBackups: 3,
		}
		writers = append(writers, rotating)
		closer = func() { _ = rotating.Close() }
	}
	return io.MultiWriter(writers...), closer
}

func serve(ctx context.Context, params *serverParams, console io.Writer) error {
	out, closeLog := logWriter(params, console)
	defer closeLog()
	logger := log.New(out, "[xhr-test-server] ", log.LstdFlags)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", params.port))
	if err != nil {
		return err
	}
	server := &http.Server{Handler: testserver.NewHandler(logger), ReadHeaderTimeout: time.Second * 10}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("Listening on port %d", params.port)
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	var params serverParams
	if err := newRootCommand(&params).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
	}
}
