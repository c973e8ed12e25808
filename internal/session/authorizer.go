package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

// Authorizer exchanges the access key the server rendered into its entry
// page for a session key. Each successful exchange rotates the server's
// key, so any other console bound to the previous key is taken over.
type Authorizer struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

func NewAuthorizer(baseURL, accessKey string, timeout time.Duration) *Authorizer {
	return &Authorizer{
		baseURL:   baseURL,
		accessKey: accessKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// Authorize performs the exchange and returns the new session key.
func (a *Authorizer) Authorize(ctx context.Context) (string, error) {
	const op = "session.Authorize"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+consts.AuthorizePath, nil)
	if err != nil {
		return "", errors.New(errors.ErrCodeAuthorizeFailed, op, "build request", err)
	}
	req.Header.Set(consts.AccessKeyHeader, a.accessKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", errors.New(errors.ErrCodeAuthorizeFailed, op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeIdentityRejected, op, fmt.Sprintf("server answered %d", resp.StatusCode), nil)
	}

	var body protocol.AuthorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.New(errors.ErrCodeAuthorizeFailed, op, "decode response", err)
	}
	if body.SessionKey == "" {
		return "", errors.New(errors.ErrCodeIdentityRejected, op, "empty session key", nil)
	}

	logger.Log.Info("Session authorized")
	return body.SessionKey, nil
}

// Deliver runs Authorize and hands the outcome to id.
func (a *Authorizer) Deliver(ctx context.Context, id *Identity) {
	key, err := a.Authorize(ctx)
	if err != nil {
		logger.Log.Error("Authorization failed", "err", err)
		id.Reject(err)
		return
	}
	id.Resolve(key)
}

// Personal.AI order the ending
