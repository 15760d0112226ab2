package history

import (
	"context"
	"sync"

	"github.com/cristianoliveira/koyr/internal/palette"
)

// Logger is the logging surface the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder connects a palette to a Store: started executions open runs and
// settlements finish them. Runs are tracked per execution, so overlapping
// runs of one command are recorded separately.
type Recorder struct {
	store  *Store
	logger Logger

	mu      sync.Mutex
	pending map[*palette.Execution]string // execution -> run id
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store *Store, logger Logger) *Recorder {
	return &Recorder{store: store, logger: logger, pending: make(map[*palette.Execution]string)}
}

// PaletteOptions returns the palette callbacks that feed the recorder.
func (r *Recorder) PaletteOptions() []palette.Option {
	return []palette.Option{palette.WithOnStart(r.OnStart), palette.WithOnSettle(r.OnSettle)}
}

// OnStart is a palette execution start callback.
func (r *Recorder) OnStart(exec *palette.Execution) {
	cmd := exec.Command()
	runID, err := r.store.Start(context.Background(), cmd.CommandID(), cmd.CommandName())
	if err != nil {
		r.warn("history start failed", "command", cmd.CommandID(), "error", err)
		if runID == "" {
			return
		}
	}
	r.mu.Lock()
	r.pending[exec] = runID
	r.mu.Unlock()
}

// OnSettle is a palette settlement callback.
func (r *Recorder) OnSettle(exec *palette.Execution) {
	r.mu.Lock()
	runID, ok := r.pending[exec]
	delete(r.pending, exec)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := r.store.Finish(context.Background(), runID, exec.Duration(), exec.Err()); err != nil {
		r.warn("history finish failed", "command", exec.Command().CommandID(), "error", err)
	}
}

func (r *Recorder) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
