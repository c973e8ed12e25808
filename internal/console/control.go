package console

import (
	"context"
	"sync"

	"github.com/turtacn/Tether/internal/cgi"
	"github.com/turtacn/Tether/internal/lifecycle"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

// MainControl issues the drone commands. A successful command advances the
// lifecycle right away; the next telemetry frame confirms or corrects it.
type MainControl struct {
	client   *cgi.Client
	states   *lifecycle.Machine
	messages protocol.Messages
	progress *Progress
	log      logger.Logger

	mu       sync.RWMutex
	startKey string
}

func NewMainControl(client *cgi.Client, states *lifecycle.Machine, messages protocol.Messages, progress *Progress) *MainControl {
	if progress == nil {
		progress = &Progress{}
	}
	return &MainControl{
		client:   client,
		states:   states,
		messages: messages,
		progress: progress,
		log:      logger.Log.With("component", "control"),
	}
}

func (c *MainControl) SetStartKey(key string) {
	c.mu.Lock()
	c.startKey = key
	c.mu.Unlock()
}

func (c *MainControl) StartKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startKey
}

// GenerateKey asks the signaling server, through the local server, for a
// fresh start key and keeps it as the pending key.
func (c *MainControl) GenerateKey(ctx context.Context) (string, error) {
	if err := c.live("control.GenerateKey"); err != nil {
		return "", err
	}
	c.progress.Start()
	defer c.progress.End()

	var out protocol.StartKeyBody
	if err := c.client.Get(ctx, consts.PathGenerateKey, &out, c.messages.GenerateFailed); err != nil {
		return "", err
	}
	c.SetStartKey(out.StartKey)
	return out.StartKey, nil
}

// StartApp starts signaling with the pending start key.
func (c *MainControl) StartApp(ctx context.Context) error {
	if err := c.live("control.StartApp"); err != nil {
		return err
	}
	c.progress.Start()
	defer c.progress.End()

	body := protocol.StartKeyBody{StartKey: c.StartKey()}
	if err := c.client.PostJSON(ctx, consts.PathStartApp, body, nil, c.messages.StartFailed); err != nil {
		c.states.Update(lifecycle.KindStateChanged, func(tx *lifecycle.Tx) { tx.ToInit() })
		return err
	}

	c.states.Update(lifecycle.KindStateChanged, func(tx *lifecycle.Tx) {
		tx.SetApplication(consts.AppStarted)
		tx.ToReady()
	})
	return nil
}

// Resume re-issues the start command after the channel is re-established.
func (c *MainControl) Resume() {
	if err := c.StartApp(context.Background()); err != nil {
		c.log.Warn("Resuming the start command failed", "err", err)
	}
}

func (c *MainControl) StopApp(ctx context.Context) error {
	if err := c.live("control.StopApp"); err != nil {
		return err
	}
	c.progress.Start()
	defer c.progress.End()

	if err := c.client.PostJSON(ctx, consts.PathStopApp, nil, nil, ""); err != nil {
		return err
	}
	c.SetStartKey("")
	c.states.Update(lifecycle.KindStateChanged, func(tx *lifecycle.Tx) { tx.SetApplication(consts.AppInit) })
	return nil
}

func (c *MainControl) TakeOff(ctx context.Context) error {
	return c.move(ctx, "control.TakeOff", consts.PathTakeOff, func(tx *lifecycle.Tx) { tx.ToTakeOff() })
}

func (c *MainControl) Land(ctx context.Context) error {
	return c.move(ctx, "control.Land", consts.PathLand, func(tx *lifecycle.Tx) { tx.ToLand() })
}

func (c *MainControl) move(ctx context.Context, op, path string, advance func(tx *lifecycle.Tx)) error {
	if err := c.live(op); err != nil {
		return err
	}
	c.progress.Start()
	defer c.progress.End()

	if err := c.client.PostJSON(ctx, path, nil, nil, ""); err != nil {
		return err
	}
	c.states.Update(lifecycle.KindStateChanged, advance)
	return nil
}

func (c *MainControl) live(op string) error {
	if c.states.IsTerminated() {
		return errors.New(errors.ErrCodeTerminated, op, "session is terminated", errors.ErrTerminated)
	}
	return nil
}

// Personal.AI order the ending
