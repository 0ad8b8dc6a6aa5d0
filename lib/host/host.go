package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/kv"
	"github.com/stashdb/stashdb/lib/task"
)

var log = logrus.WithField("component", "host")

// Config configures a host instance.
type Config struct {
	// MaxWorkers bounds how many operation compute phases run concurrently.
	// Zero or negative selects one worker per CPU.
	MaxWorkers int
}

// New creates a host that opens engine sessions through the given factory.
//
// Usage:
//
//	h := host.New(pebble.Open, host.Config{})
//	fut := h.Connect(ctx, "./db", engine.OpenOptions{CreateIfMissing: true})
//	handle, err := fut.Await(ctx)
func New(factory engine.Factory, cfg Config) IHost {
	return &hostImpl{
		factory:    factory,
		registry:   kv.NewRegistry(),
		dispatcher: task.NewDispatcher(cfg.MaxWorkers),
	}
}

type hostImpl struct {
	factory    engine.Factory
	registry   *kv.Registry
	dispatcher *task.Dispatcher
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (h *hostImpl) Connect(ctx context.Context, path string, opts engine.OpenOptions) *task.Future[kv.Handle] {
	return task.Submit(h.dispatcher, ctx, &connectTask{host: h, path: path, opts: opts})
}

func (h *hostImpl) GetItem(ctx context.Context, handle kv.Handle, key string) *task.Future[Item] {
	return task.Submit(h.dispatcher, ctx, &getItemTask{host: h, handle: handle, key: key})
}

func (h *hostImpl) SetItem(ctx context.Context, handle kv.Handle, key, value string) *task.Future[struct{}] {
	return task.Submit(h.dispatcher, ctx, &setItemTask{host: h, handle: handle, key: key, value: value})
}

func (h *hostImpl) GetKeys(ctx context.Context, handle kv.Handle, prefix string) *task.Future[[]string] {
	return task.Submit(h.dispatcher, ctx, &getKeysTask{host: h, handle: handle, prefix: prefix})
}

func (h *hostImpl) RemoveItem(ctx context.Context, handle kv.Handle, key string) *task.Future[struct{}] {
	return task.Submit(h.dispatcher, ctx, &removeItemTask{host: h, handle: handle, key: key})
}

func (h *hostImpl) Close(ctx context.Context, handle kv.Handle) *task.Future[struct{}] {
	return task.Submit(h.dispatcher, ctx, &closeTask{host: h, handle: handle})
}

func (h *hostImpl) Shutdown(ctx context.Context) error {
	h.dispatcher.Close()

	var errs []error
	h.registry.Range(func(handle kv.Handle, inst *kv.Instance) bool {
		h.registry.Remove(handle)
		if !inst.BeginTeardown() {
			return true
		}
		log.Infof("releasing store %s (handle %d)", inst.Path, handle)
		if err := inst.Teardown(inst.Engine.Close); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", inst.Path, err))
		}
		return ctx.Err() == nil
	})

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// observe records one finished compute phase for the given operation.
func observe(op string, start time.Time, err error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`stashdb_ops_total{op=%q}`, op)).Inc()
	metrics.GetOrCreateSummary(fmt.Sprintf(`stashdb_op_duration_seconds{op=%q}`, op)).UpdateDuration(start)
	if err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`stashdb_op_errors_total{op=%q,kind=%q}`, op, kv.KindOf(err))).Inc()
	}
}
