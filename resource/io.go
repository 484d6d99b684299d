package resource

import (
	"context"
	"io"
)

// Writer returns w throttled by the IO limit of c. Without a limit, w is
// returned unchanged.
func (c *Controller) Writer(ctx context.Context, w io.Writer) io.Writer {
	if c == nil || c.ioLimiter == nil {
		return w
	}
	return &limitedWriter{ctx: ctx, w: w, c: c}
}

type limitedWriter struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if err := lw.c.AcquireIO(lw.ctx, len(p)); err != nil {
		return 0, err
	}
	return lw.w.Write(p)
}
