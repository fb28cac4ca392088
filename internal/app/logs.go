package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultLogTail is how many lines each service contributes when the
// operator does not say otherwise.
const DefaultLogTail = 100

// LogsOptions tunes a log streaming run.
type LogsOptions struct {
	// Services to stream. Empty streams the whole stack; compose
	// prefixes lines itself in that case.
	Services []string
	Follow   bool
	Tail     int
}

// Logs streams container logs to the harness output. Naming several
// services streams them concurrently, one goroutine per service, with
// a per-line service prefix so the interleaved output stays
// attributable.
func (h *Harness) Logs(ctx context.Context, opts LogsOptions) error {
	m, err := h.Manifest()
	if err != nil {
		return err
	}
	engine := h.compose(m)

	if opts.Tail <= 0 {
		opts.Tail = DefaultLogTail
	}

	switch len(opts.Services) {
	case 0:
		return engine.Logs(ctx, h.out, "", opts.Follow, opts.Tail)
	case 1:
		return engine.Logs(ctx, h.out, opts.Services[0], opts.Follow, opts.Tail)
	}

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, svc := range opts.Services {
		g.Go(func() error {
			w := &prefixedWriter{mu: &mu, out: h.out, prefix: svc + " | "}
			defer w.flush()
			if err := engine.Logs(ctx, w, svc, opts.Follow, opts.Tail); err != nil {
				return fmt.Errorf("logs for %s: %w", svc, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// prefixedWriter emits whole lines with a fixed prefix. Writers for
// different services share one mutex, so a line from one stream never
// splits a line from another.
type prefixedWriter struct {
	mu     *sync.Mutex
	out    io.Writer
	prefix string
	buf    []byte
}

func (w *prefixedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := w.buf[:i+1]
		if err := w.emit(line); err != nil {
			return len(p), err
		}
		w.buf = w.buf[i+1:]
	}
}

// flush emits a trailing unterminated line, if the stream ended with one.
func (w *prefixedWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) == 0 {
		return
	}
	_ = w.emit(append(w.buf, '\n'))
	w.buf = nil
}

func (w *prefixedWriter) emit(line []byte) error {
	if _, err := io.WriteString(w.out, w.prefix); err != nil {
		return err
	}
	_, err := w.out.Write(line)
	return err
}
