package console

import (
	"context"
	"sync"

	"github.com/turtacn/Tether/internal/cgi"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/notify"
	"github.com/turtacn/Tether/pkg/protocol"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) bool

func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

type alwaysYes struct{}

func (alwaysYes) Confirm(string) bool { return true }

const (
	confirmUpdateToken = "Are you sure you want to update the existing access token?"
	confirmDeleteToken = "Are you sure you want to delete the existing access token?"
)

// SetupModel manages the access token stored by the server. The token
// itself never comes back; the server only returns a description of it.
type SetupModel struct {
	client   *cgi.Client
	confirm  Confirmer
	messages protocol.Messages
	progress *Progress

	mu          sync.RWMutex
	accessToken string
	savedDesc   string
	observers   notify.Registry[struct{}]
}

func NewSetupModel(client *cgi.Client, confirm Confirmer, messages protocol.Messages, progress *Progress) *SetupModel {
	if confirm == nil {
		confirm = alwaysYes{}
	}
	if progress == nil {
		progress = &Progress{}
	}
	return &SetupModel{client: client, confirm: confirm, messages: messages, progress: progress}
}

func (s *SetupModel) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
	s.changed()
}

func (s *SetupModel) SetSavedAccessTokenDesc(desc string) {
	s.mu.Lock()
	s.savedDesc = desc
	s.mu.Unlock()
	s.changed()
}

func (s *SetupModel) SavedAccessTokenDesc() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedDesc
}

func (s *SetupModel) CanUpdate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

func (s *SetupModel) CanDelete() bool { return s.SavedAccessTokenDesc() != "" }

// Update replaces the stored token with the one typed in. It returns
// false without a request when the operator declines the overwrite.
func (s *SetupModel) Update(ctx context.Context) (bool, error) {
	if s.CanDelete() && !s.confirm.Confirm(confirmUpdateToken) {
		return false, nil
	}

	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	s.progress.Start()
	defer s.progress.End()

	var out protocol.AccessTokenResponse
	if err := s.client.PostJSON(ctx, consts.PathUpdateToken, protocol.AccessTokenRequest{AccessToken: token}, &out, s.messages.UpdateFailed); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.savedDesc = out.AccessTokenDesc
	s.mu.Unlock()
	s.changed()
	return true, nil
}

// Delete removes the stored token. The local display is cleared whatever
// the server answered.
func (s *SetupModel) Delete(ctx context.Context) (bool, error) {
	if !s.confirm.Confirm(confirmDeleteToken) {
		return false, nil
	}

	s.progress.Start()
	err := s.client.Delete(ctx, consts.PathDeleteToken, nil, "")
	s.progress.End()

	s.mu.Lock()
	s.accessToken = ""
	s.savedDesc = ""
	s.mu.Unlock()
	s.changed()
	return err == nil, err
}

func (s *SetupModel) Subscribe(fn func(struct{})) (unsubscribe func()) {
	return s.observers.Subscribe(fn)
}

func (s *SetupModel) changed() { s.observers.Emit(struct{}{}) }

// Personal.AI order the ending
