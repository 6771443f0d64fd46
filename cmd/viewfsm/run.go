package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/librescoot/viewfsm"
	"github.com/librescoot/viewfsm/metrics"
	"github.com/librescoot/viewfsm/redisbridge"
)

type runOptions struct {
	metricsAddr  string
	redisAddr    string
	redisChannel string
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Drive a machine with element events read from stdin",
		Long: `Each input line is one command:

  NAME [DETAIL]   dispatch element event NAME (routed through the bindings)
  !EVENT          process machine event EVENT directly
  wait DURATION   sleep, letting scheduled timers fire

Every landed transition is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(cmd, opts, ro, args[0])
		},
	}

	cmd.Flags().StringVar(&ro.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&ro.redisAddr, "redis-addr", "", "Publish and relay state changes through this Redis server")
	cmd.Flags().StringVar(&ro.redisChannel, "redis-channel", "viewfsm:statechanged", "Redis pub/sub channel")
	return cmd
}

type printer struct {
	mu      sync.Mutex
	out     io.Writer
	state   lipgloss.Style
	event   lipgloss.Style
	dimmed  lipgloss.Style
	warning lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:     out,
		state:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		event:   r.NewStyle().Foreground(lipgloss.Color("86")),
		dimmed:  r.NewStyle().Faint(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("208")),
	}
}

func (p *printer) printf(style lipgloss.Style, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) transition(prefix string, from, to, event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s%s → %s (%s)\n", prefix, p.state.Render(from), p.state.Render(to), p.event.Render(event))
}

func runMachine(cmd *cobra.Command, opts *rootOptions, ro *runOptions, path string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	logger := opts.logger(cmd)
	out := newPrinter(cmd.OutOrStdout())

	f, err := loadFile(path)
	if err != nil {
		return err
	}
	def, err := f.Definition()
	if err != nil {
		return err
	}
	bindings, err := f.EventBindings()
	if err != nil {
		return err
	}

	ctrlOpts := []viewfsm.ControllerOption{viewfsm.WithControllerLogger(logger)}

	if ro.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec, err := metrics.New(reg, f.Name)
		if err != nil {
			return err
		}
		ctrlOpts = append(ctrlOpts, viewfsm.WithControllerRecorder(rec))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: ro.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("serving metrics", "addr", ro.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	el := viewfsm.NewElement(f.Name)
	ctrlOpts = append(ctrlOpts, viewfsm.WithElement(el))

	ctrl, err := viewfsm.NewController(def, ctrlOpts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	el.AddEventListener(viewfsm.EventStateChanged, func(detail any) {
		if sc, ok := detail.(viewfsm.StateChanged); ok {
			out.transition("", string(sc.From), string(sc.To), string(sc.Event))
		}
	})

	if ro.redisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: ro.redisAddr})
		defer client.Close()

		bridge := redisbridge.New(client,
			redisbridge.WithChannel(ro.redisChannel),
			redisbridge.WithLogger(logger),
		)
		detach := bridge.Attach(el)
		defer detach()

		el.AddEventListener(redisbridge.EventRemoteStateChanged, func(detail any) {
			if m, ok := detail.(redisbridge.Message); ok {
				out.transition("["+m.Controller+"] ", m.From, m.To, m.Event)
			}
		})
		stop, err := bridge.Relay(ctx, el)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctrl.Bind(el, bindings)
	out.printf(out.dimmed, "%s: %s", f.Name, ctrl.CurrentState())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, detail, _ := strings.Cut(line, " ")
		switch {
		case name == "wait":
			d, err := time.ParseDuration(strings.TrimSpace(detail))
			if err != nil {
				return fmt.Errorf("bad wait %q: %w", detail, err)
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		case strings.HasPrefix(name, "!"):
			event := viewfsm.EventID(strings.TrimPrefix(name, "!"))
			ch, err := ctrl.ProcessEvent(event, detailOrNil(detail))
			if err != nil {
				out.printf(out.warning, "%s: %v", event, err)
			} else if ch == nil {
				out.printf(out.dimmed, "%s ignored in %s", event, ctrl.CurrentState())
			}
		default:
			if n := el.DispatchEvent(name, detailOrNil(detail)); n == 0 {
				out.printf(out.warning, "no binding for %s", name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	out.printf(out.dimmed, "final: %s", ctrl.CurrentState())
	return nil
}

func detailOrNil(detail string) any {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return nil
	}
	return detail
}
