package console

import (
	"sync"

	"github.com/turtacn/Tether/pkg/notify"
)

type Tab int

const (
	TabSetup Tab = iota
	TabRun
)

func (t Tab) String() string {
	if t == TabRun {
		return "run"
	}
	return "setup"
}

// TabModel tracks which console pane is selected. It starts on TabSetup.
type TabModel struct {
	mu        sync.RWMutex
	selected  Tab
	observers notify.Registry[Tab]
}

func (t *TabModel) Setup() { t.selectTab(TabSetup) }
func (t *TabModel) Run()   { t.selectTab(TabRun) }

func (t *TabModel) Selected() Tab {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected
}

func (t *TabModel) Subscribe(fn func(Tab)) (unsubscribe func()) {
	return t.observers.Subscribe(fn)
}

func (t *TabModel) selectTab(tab Tab) {
	t.mu.Lock()
	t.selected = tab
	t.mu.Unlock()
	t.observers.Emit(tab)
}

// Personal.AI order the ending
