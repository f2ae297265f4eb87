package pkg

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// CombinedWriter fans each write out to all writers. A write succeeds if at
// least one writer accepted it; errors of the others are available via Err.
type CombinedWriter struct {
	mutex   sync.Mutex
	writers []io.Writer
	err     error
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: append([]io.Writer(nil), writers...),
	}
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	var errs error
	accepted := false
	for _, w := range cw.writers {
		if _, err := w.Write(p); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		accepted = true
	}
	cw.err = errs

	if !accepted && len(cw.writers) > 0 {
		return 0, errs
	}
	return len(p), nil
}

// Err returns the errors of the last write, if any
func (cw *CombinedWriter) Err() error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	return cw.err
}

func (cw *CombinedWriter) Len() int {
	return len(cw.writers)
}
