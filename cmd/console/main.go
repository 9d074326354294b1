// Command console is the operator side of the pilot link: it serves the
// websocket a pioneer dials and forwards typed commands to it.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pioneer.ai/internal/protocol"
	"pioneer.ai/internal/transport/ws"
)

var keys = map[string]int8{
	"w": protocol.ActUp,
	"a": protocol.ActLeft,
	"s": protocol.ActDown,
	"d": protocol.ActRight,
	"x": protocol.ActDestroy,
	"t": protocol.ActTent,
	"c": protocol.ActScan,
	"e": protocol.ActSell,
	"b": protocol.ActDeposit,
	"q": protocol.ActDisconnect,
}

func main() {
	var (
		addr   string
		path   string
		manual bool
		debug  bool
	)
	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Operator console for a pioneer pilot link",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewDevelopmentConfig()
			if !debug {
				config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			log, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			mode := protocol.ModeAssisted
			if manual {
				mode = protocol.ModeManual
			}
			s := ws.NewServer(mode, log)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, addr, path, s, cmd.InOrStdin(), cmd.OutOrStdout(), manual, log)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8090", "listen address")
	f.StringVar(&path, "path", "/pilot", "websocket path")
	f.BoolVar(&manual, "manual", false, "steer by hand instead of choosing objectives")
	f.BoolVar(&debug, "debug", false, "debug logging")
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr, path string, s *ws.Server, in io.Reader, out io.Writer, manual bool, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("console listening", zap.String("addr", addr), zap.String("path", path), zap.Bool("manual", manual))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case v := <-s.Scores():
				fmt.Fprintf(out, "score %.2f\n", v)
			}
		}
	})
	// Stdin is not cancellable; the reader goroutine is left behind on exit.
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					<-gctx.Done()
					return nil
				}
				fmt.Fprintln(out, command(s, line, manual))
			}
		}
	})
	return g.Wait()
}

// command applies one typed line and returns the reply to print.
func command(s *ws.Server, line string, manual bool) string {
	word := strings.ToUpper(strings.TrimSpace(line))
	if word == "" {
		return ""
	}
	if manual {
		a, ok := keys[strings.ToLower(word)]
		if !ok {
			a = protocol.ParseAction(word)
		}
		if a == protocol.ActNone {
			return "unknown action " + strconv.Quote(line)
		}
		if !s.Press(a) {
			return "busy"
		}
		return protocol.ActionName(a)
	}
	c := protocol.ParseObjective(word)
	if n, err := strconv.Atoi(word); err == nil {
		c = protocol.ObjectiveCode(n)
	}
	if !c.Known() {
		return "unknown objective " + strconv.Quote(line)
	}
	if !s.QueueObjective(c) {
		return "queue full"
	}
	return "queued " + c.String()
}
