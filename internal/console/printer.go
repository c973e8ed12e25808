package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/turtacn/Tether/internal/lifecycle"
	"github.com/turtacn/Tether/pkg/consts"
)

// Printer renders lifecycle notifications and status messages as text lines.
type Printer struct {
	mu  sync.Mutex
	out io.Writer

	red    func(a ...interface{}) string
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
	}
}

// Notification prints one lifecycle notification.
func (p *Printer) Notification(n lifecycle.Notification) {
	s := n.Snapshot
	if s.Terminated() {
		p.println(p.red("application TERMINATED"))
		return
	}

	h := s.Health.HealthInfo()
	b := s.Health.BatteryLevelInfo()
	health := h.Desc
	if h.State == consts.HealthOk {
		health = p.green(health)
	} else if h.Desc != "-" {
		health = p.red(health)
	}

	p.println(fmt.Sprintf("[%s] application=%s view=%s health=%s battery=%s(%s)",
		n.Kind, s.Application, s.View, health, b.Desc, b.Level))
}

// Message prints a status message.
func (p *Printer) Message(message string) {
	p.println(p.yellow(message))
}

func (p *Printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// Personal.AI order the ending
