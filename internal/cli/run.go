package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/turtacn/Tether/internal/cgi"
	"github.com/turtacn/Tether/internal/console"
	"github.com/turtacn/Tether/internal/lifecycle"
	"github.com/turtacn/Tether/internal/orchestrator"
	"github.com/turtacn/Tether/internal/session"
	"github.com/turtacn/Tether/internal/supervisor"
	"github.com/turtacn/Tether/internal/transport"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach an interactive console to the server",
	Long: "Attach an interactive console to the server. Commands are read from stdin:\n" +
		"  " + strings.Join(consoleCommands, ", "),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := boot(cmd)
		logger.Log.Info("Booting Tether console...", "server", cfg.Server.BaseURL)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lines := readLines(os.Stdin)
		for {
			reload, err := runSession(ctx, cfg, lines, cmd.OutOrStdout())
			if err != nil {
				logger.Log.Error("Session fatal error", "err", err)
				os.Exit(1)
			}
			if !reload {
				return
			}
			logger.Log.Info("Reloading console")
		}
	},
}

var consoleCommands = []string{"generate", "start", "stop", "takeoff", "land", "terminate", "token <value>", "delete-token", "status", "quit"}

// consoleSession is one console instance, the equivalent of a single page load.
type consoleSession struct {
	cfg      *protocol.Config
	states   *lifecycle.Machine
	modal    *console.Modal
	tabs     *console.TabModel
	setup    *console.SetupModel
	control  *console.MainControl
	header   *console.HeaderModel
	reloader *console.Reloader
	engine   *orchestrator.Engine
	printer  *console.Printer
}

func newConsoleSession(cfg *protocol.Config, out io.Writer) (*consoleSession, *supervisor.ConnectionSupervisor, *session.Identity, error) {
	dialer, err := transport.NewWebSocketDialer(cfg.Server.BaseURL, cfg.Channel.Path, cfg.Channel.HandshakeTimeoutDuration())
	if err != nil {
		return nil, nil, nil, err
	}

	s := &consoleSession{
		cfg:      cfg,
		states:   lifecycle.New(),
		modal:    &console.Modal{},
		tabs:     &console.TabModel{},
		reloader: console.NewReloader(),
		printer:  console.NewPrinter(out),
	}
	progress := &console.Progress{}
	client := cgi.New(cgi.Options{
		BaseURL:        cfg.Server.BaseURL,
		Prefix:         cfg.Server.CGIPrefix,
		Timeout:        cfg.Server.RequestTimeoutDuration(),
		Alerter:        s.modal,
		DefaultFailure: cfg.Messages.RequestFailed,
	})
	s.setup = console.NewSetupModel(client, nil, cfg.Messages, progress)
	s.control = console.NewMainControl(client, s.states, cfg.Messages, progress)

	sup := supervisor.New(supervisor.Options{
		Dialer:        dialer,
		States:        s.states,
		Status:        s.modal,
		Navigator:     s.reloader,
		Messages:      cfg.Messages,
		RetryInterval: cfg.Channel.RetryIntervalDuration(),
		MaxRetry:      cfg.Channel.MaxRetry,
	})

	identity := session.NewIdentity()
	s.engine = orchestrator.NewEngine(orchestrator.Options{
		Config:      cfg,
		Identity:    identity,
		Client:      client,
		States:      s.states,
		Supervisor:  sup,
		Credentials: s.setup,
		Keys:        s.control,
		Tabs:        s.tabs,
		Resume:      s.control.Resume,
	})
	s.header = console.NewHeaderModel(s.engine, nil)

	s.states.Subscribe(s.printer.Notification)
	s.modal.Subscribe(s.printer.Message)
	return s, sup, identity, nil
}

// runSession runs one console until the operator quits (false) or the
// session navigates away (true).
func runSession(ctx context.Context, cfg *protocol.Config, lines <-chan string, out io.Writer) (bool, error) {
	s, sup, identity, err := newConsoleSession(cfg, out)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sup.Run(ctx)

	authorizer := session.NewAuthorizer(cfg.Server.BaseURL, cfg.Server.AccessKey, cfg.Server.RequestTimeoutDuration())
	go authorizer.Deliver(ctx, identity)

	if err := s.engine.Start(ctx); err != nil {
		return false, err
	}

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case <-s.reloader.C():
			return true, nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				return false, nil
			}
			s.exec(ctx, line)
		}
	}
}

func (s *consoleSession) exec(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "generate":
		var key string
		if key, err = s.control.GenerateKey(ctx); err == nil {
			s.printer.Message("start key: " + key)
		}
	case "start":
		if len(fields) > 1 {
			s.control.SetStartKey(fields[1])
		}
		err = s.control.StartApp(ctx)
	case "stop":
		err = s.control.StopApp(ctx)
	case "takeoff":
		err = s.control.TakeOff(ctx)
	case "land":
		err = s.control.Land(ctx)
	case "terminate":
		_, err = s.header.Terminate(ctx)
	case "token":
		if len(fields) < 2 {
			s.printer.Message("usage: token <value>")
			return
		}
		s.setup.SetAccessToken(fields[1])
		_, err = s.setup.Update(ctx)
	case "delete-token":
		_, err = s.setup.Delete(ctx)
	case "status":
		snap := s.states.Snapshot()
		s.printer.Notification(lifecycle.Notification{Kind: lifecycle.KindStateChanged, Snapshot: snap})
	default:
		s.printer.Message(fmt.Sprintf("unknown command %q, try one of: %s", fields[0], strings.Join(consoleCommands, ", ")))
		return
	}
	if err != nil {
		logger.Log.Warn("Command failed", "command", fields[0], "err", err)
	}
}

func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// Personal.AI order the ending
