package console

import "context"

const confirmTerminate = "Are you sure you want to terminate the application?" +
	" If you terminate the application, the drone lands (if it has already taken off) and the server stops." +
	" In order to restart the application, you have to run the server manually."

// Terminator ends the whole session, server process included.
type Terminator interface {
	Terminate(ctx context.Context) error
}

type HeaderModel struct {
	terminator Terminator
	confirm    Confirmer
}

func NewHeaderModel(t Terminator, confirm Confirmer) *HeaderModel {
	if confirm == nil {
		confirm = alwaysYes{}
	}
	return &HeaderModel{terminator: t, confirm: confirm}
}

// Terminate asks for confirmation first. It reports whether the request was sent.
func (h *HeaderModel) Terminate(ctx context.Context) (bool, error) {
	if !h.confirm.Confirm(confirmTerminate) {
		return false, nil
	}
	return true, h.terminator.Terminate(ctx)
}

// Personal.AI order the ending
