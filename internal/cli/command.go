package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/turtacn/Tether/internal/cgi"
	"github.com/turtacn/Tether/internal/session"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

var sessionKey string

// request describes one one-shot CGI call.
type request struct {
	method string
	path   string
	body   func(args []string) any
	out    func() any
}

var requests = map[string]request{
	"generate-key": {method: "GET", path: consts.PathGenerateKey, out: func() any { return &protocol.StartKeyBody{} }},
	"start": {method: "POST", path: consts.PathStartApp, body: func(args []string) any {
		return protocol.StartKeyBody{StartKey: args[0]}
	}},
	"stop":      {method: "POST", path: consts.PathStopApp},
	"takeoff":   {method: "POST", path: consts.PathTakeOff},
	"land":      {method: "POST", path: consts.PathLand},
	"terminate": {method: "POST", path: consts.PathTerminate},
	"states":    {method: "GET", path: consts.PathApplicationState, out: func() any { return &protocol.StatesResponse{} }},
}

var commandCmd = &cobra.Command{
	Use:       "command <generate-key|start <key>|stop|takeoff|land|terminate|states>",
	Short:     "Send a one-shot request to a running server",
	Long:      "Send a one-shot request to a running server. Without --session-key a new\nsession is authorized first, which takes over any attached console.",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"generate-key", "start", "stop", "takeoff", "land", "terminate", "states"},
	Run: func(cmd *cobra.Command, args []string) {
		cfg := boot(cmd)
		out, err := sendCommand(cmd.Context(), cfg, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if out != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", out)
		}
	},
}

func init() {
	commandCmd.Flags().StringVar(&sessionKey, "session-key", "", "reuse an existing session key")
}

func sendCommand(ctx context.Context, cfg *protocol.Config, args []string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, ok := requests[args[0]]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", args[0])
	}
	if req.body != nil && len(args) < 2 {
		return nil, fmt.Errorf("%s needs an argument", args[0])
	}

	key := sessionKey
	if key == "" {
		var err error
		key, err = session.NewAuthorizer(cfg.Server.BaseURL, cfg.Server.AccessKey, cfg.Server.RequestTimeoutDuration()).Authorize(ctx)
		if err != nil {
			return nil, err
		}
	}

	client := cgi.New(cgi.Options{
		BaseURL:        cfg.Server.BaseURL,
		Prefix:         cfg.Server.CGIPrefix,
		Timeout:        cfg.Server.RequestTimeoutDuration(),
		Alerter:        cgi.AlertFunc(func(msg string) { logger.Log.Error(msg) }),
		DefaultFailure: cfg.Messages.RequestFailed,
	})
	client.SetSessionKey(key)

	var out any
	if req.out != nil {
		out = req.out()
	}
	var err error
	switch req.method {
	case "GET":
		err = client.Get(ctx, req.path, out, "")
	default:
		var body any
		if req.body != nil {
			body = req.body(args[1:])
		}
		err = client.PostJSON(ctx, req.path, body, out, "")
	}
	return out, err
}

// Personal.AI order the ending
