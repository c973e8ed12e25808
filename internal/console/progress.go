package console

import "sync/atomic"

// Progress counts in-flight one-shot requests.
type Progress struct {
	inFlight atomic.Int32
}

func (p *Progress) Start()             { p.inFlight.Add(1) }
func (p *Progress) End()               { p.inFlight.Add(-1) }
func (p *Progress) IsProcessing() bool { return p.inFlight.Load() > 0 }

// Personal.AI order the ending
