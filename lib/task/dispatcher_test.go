package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// funcTask adapts a pair of functions to the ITask interface for tests.
type funcTask[T any] struct {
	compute func(ctx context.Context) (T, error)
	resolve func(out T, err error) (T, error)
}

func (t *funcTask[T]) Compute(ctx context.Context) (T, error) {
	return t.compute(ctx)
}

func (t *funcTask[T]) Resolve(out T, err error) (T, error) {
	if t.resolve == nil {
		return out, err
	}
	return t.resolve(out, err)
}

func TestSubmitDeliversResult(t *testing.T) {
	d := NewDispatcher(2)
	defer d.Close()

	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { return 41, nil },
		resolve: func(out int, err error) (int, error) { return out + 1, err },
	})

	got, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected resolve to transform the output, got %d", got)
	}
}

func TestSubmitDeliversError(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	boom := errors.New("boom")
	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { return 0, boom },
	})

	if _, err := f.Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected compute error to surface, got %v", err)
	}
}

func TestAwaitIsIdempotent(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	var resolveCalls atomic.Int32
	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { return 7, nil },
		resolve: func(out int, err error) (int, error) {
			resolveCalls.Add(1)
			return out, err
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.Await(context.Background())
			if err != nil || got != 7 {
				t.Errorf("await: got=%d err=%v", got, err)
			}
		}()
	}
	wg.Wait()

	if n := resolveCalls.Load(); n != 1 {
		t.Errorf("expected resolve to run exactly once, ran %d times", n)
	}
}

func TestCancelBeforeComputeSkipsCompute(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	// Occupy the single worker slot so the second task stays queued.
	started := make(chan struct{})
	release := make(chan struct{})
	blocker := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		},
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	f := Submit[int](d, ctx, &funcTask[int]{
		compute: func(ctx context.Context) (int, error) {
			ran.Store(true)
			return 0, nil
		},
	})

	cancel()

	if _, err := f.Await(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran.Load() {
		t.Errorf("compute phase ran despite cancellation before start")
	}

	close(release)
	if _, err := blocker.Await(context.Background()); err != nil {
		t.Errorf("blocker task failed: %v", err)
	}
}

func TestCancelAfterComputeStartsDoesNotAbort(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	started := make(chan struct{})
	var completed atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	f := Submit[int](d, ctx, &funcTask[int]{
		compute: func(ctx context.Context) (int, error) {
			close(started)
			time.Sleep(10 * time.Millisecond)
			completed.Store(true)
			return 1, nil
		},
	})

	<-started
	cancel()

	// The compute phase is not interrupted mid-flight; its effect persists.
	got, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if got != 1 || !completed.Load() {
		t.Errorf("expected compute to run to completion after late cancel")
	}
}

func TestAwaitRespectsContext(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	release := make(chan struct{})
	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) {
			<-release
			return 9, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error from await, got %v", err)
	}

	// The task still completes and a later await sees the result.
	close(release)
	got, err := f.Await(context.Background())
	if err != nil || got != 9 {
		t.Errorf("late await: got=%d err=%v", got, err)
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	d := NewDispatcher(1)
	d.Close()

	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { return 1, nil },
	})

	if _, err := f.Await(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCloseWaitsForInflight(t *testing.T) {
	d := NewDispatcher(4)

	var done atomic.Int32
	futures := make([]*Future[int], 8)
	for i := range futures {
		futures[i] = Submit[int](d, context.Background(), &funcTask[int]{
			compute: func(ctx context.Context) (int, error) {
				time.Sleep(5 * time.Millisecond)
				done.Add(1)
				return 0, nil
			},
		})
	}

	d.Close()

	for _, f := range futures {
		// Every future is settled by now: either computed or rejected.
		select {
		case <-f.Done():
		default:
			t.Fatal("future not settled after Close returned")
		}
	}

	if done.Load() == 0 {
		t.Errorf("expected at least the in-flight tasks to have completed")
	}
}

func TestPanickingComputeFailsFuture(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	f := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { panic("engine gone") },
	})

	// The panic is confined to the failed future; the worker survives.
	if _, err := f.Await(context.Background()); err == nil {
		t.Fatal("expected an error from a panicking compute phase")
	}

	if _, err := f.Await(context.Background()); err == nil {
		t.Errorf("repeated await must observe the same failure")
	}

	// The dispatcher still executes subsequent tasks.
	ok := Submit[int](d, context.Background(), &funcTask[int]{
		compute: func(ctx context.Context) (int, error) { return 3, nil },
	})
	if got, err := ok.Await(context.Background()); err != nil || got != 3 {
		t.Errorf("dispatcher unusable after a panicking task: got=%d err=%v", got, err)
	}
}

func TestConcurrentSubmitAndClose(t *testing.T) {
	d := NewDispatcher(4)

	var wg sync.WaitGroup
	futures := make(chan *Future[int], 256)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				futures <- Submit[int](d, context.Background(), &funcTask[int]{
					compute: func(ctx context.Context) (int, error) { return 1, nil },
				})
			}
		}()
	}

	d.Close()
	wg.Wait()
	close(futures)

	// Every submission either ran or was rejected with ErrClosed; none may
	// hang or fail differently.
	for f := range futures {
		got, err := f.Await(context.Background())
		if err != nil && !errors.Is(err, ErrClosed) {
			t.Errorf("unexpected error from racing submit: %v", err)
		}
		if err == nil && got != 1 {
			t.Errorf("accepted task lost its result: got %d", got)
		}
	}
}

func TestConcurrentTasks(t *testing.T) {
	d := NewDispatcher(8)
	defer d.Close()

	const n = 100
	futures := make([]*Future[int], n)
	for i := 0; i < n; i++ {
		i := i
		futures[i] = Submit[int](d, context.Background(), &funcTask[int]{
			compute: func(ctx context.Context) (int, error) { return i * i, nil },
		})
	}

	for i, f := range futures {
		got, err := f.Await(context.Background())
		if err != nil {
			t.Fatalf("task %d failed: %v", i, err)
		}
		if got != i*i {
			t.Errorf("task %d: expected %d, got %d", i, i*i, got)
		}
	}
}
