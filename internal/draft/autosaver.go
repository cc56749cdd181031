package draft

import (
	"context"
	"sync"
	"time"

	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/metrics"
	"go.uber.org/zap"
)

// SnapshotFunc captures the session's current checkpoint. Returning ok=false
// means the session has no content yet and nothing should be written.
type SnapshotFunc func() (cp *Checkpoint, ok bool)

// Autosaver checkpoints one composition session on a fixed interval while
// it has content. Writes are asynchronous with respect to editing and a
// failed write is logged, never surfaced into the editing flow.
type Autosaver struct {
	store    Store
	snapshot SnapshotFunc
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewAutosaver creates an autosaver for one session
func NewAutosaver(store Store, snapshot SnapshotFunc, interval time.Duration) *Autosaver {
	ctx, cancel := context.WithCancel(context.Background())
	return &Autosaver{
		store:    store,
		snapshot: snapshot,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins periodic checkpointing
func (a *Autosaver) Start() {
	a.wg.Add(1)
	go a.run()
}

// Stop halts the autosave loop and waits for an in-flight flush to finish,
// so a checkpoint cannot land after the caller has cleared the draft. It
// does not delete the checkpoint; that is the publish/discard path's call.
func (a *Autosaver) Stop() {
	a.cancel()
	a.wg.Wait()
}

func (a *Autosaver) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Flush()
		case <-a.ctx.Done():
			return
		}
	}
}

// Flush writes a checkpoint immediately if the session has content.
// Also called at explicit save points (e.g. before publish attempts).
func (a *Autosaver) Flush() {
	cp, ok := a.snapshot()
	if !ok {
		return
	}
	cp.Timestamp = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.store.Save(ctx, cp); err != nil {
		metrics.Get().CheckpointFailures.Inc()
		logger.Log.Warn("Draft checkpoint write failed",
			logger.WithSessionID(cp.SessionKey), zap.Error(err))
		return
	}

	metrics.Get().CheckpointsTotal.Inc()
	logger.Log.Debug("Draft checkpoint written",
		logger.WithSessionID(cp.SessionKey),
		zap.Int("slide_count", cp.SlideCount))
}

// Clear deletes the checkpoint after publish or discard. Failure to delete
// must not block the surrounding flow, so it only logs.
func Clear(ctx context.Context, store Store, sessionKey string) {
	if err := store.Delete(ctx, sessionKey); err != nil {
		logger.Log.Warn("Failed to delete draft checkpoint",
			logger.WithSessionID(sessionKey), zap.Error(err))
	}
}
