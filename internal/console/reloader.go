package console

// Reloader is the Navigator of a console process: a navigation means the
// current session is dead and the console must start over from path.
type Reloader struct {
	ch chan string
}

func NewReloader() *Reloader {
	return &Reloader{ch: make(chan string, 1)}
}

// Navigate records the request. Only the first pending one is kept.
func (r *Reloader) Navigate(path string) {
	select {
	case r.ch <- path:
	default:
	}
}

// C delivers navigation requests.
func (r *Reloader) C() <-chan string { return r.ch }

// Personal.AI order the ending
