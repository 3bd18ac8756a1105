package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter tees every Write to all given writers, so log output
// can go to a file and stdout at the same time.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{writers: writers}
}

// Write writes p to each writer in turn. A failing writer does not stop
// the others; its error is collected and returned alongside the total
// bytes written by the writers that succeeded.
func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n += written
	}
	return n, err
}
