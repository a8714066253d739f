package main

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gocore/pkg/runtime/lock"
	"gocore/pkg/runtime/osprim"
)

type lockResult struct {
	name    string
	count   int
	elapsed time.Duration
}

func runLocks(workers, iters int) ([]lockResult, error) {
	impls := []struct {
		name string
		l    lock.Mutex
	}{
		{"futex", new(lock.FutexMutex)},
		{"emulated", &lock.FutexMutex{Futex: osprim.Emulated}},
		{"sema", new(lock.SemaMutex)},
	}
	var out []lockResult
	for _, impl := range impls {
		start := time.Now()
		count := 0
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				m := lock.NewM()
				for i := 0; i < iters; i++ {
					impl.l.Lock(m)
					count++
					impl.l.Unlock(m)
				}
				if m.Locks() != 0 {
					return fmt.Errorf("m%d still holds %d locks", m.ID, m.Locks())
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if count != workers*iters {
			return nil, fmt.Errorf("%s: lost updates: %d, want %d", impl.name, count, workers*iters)
		}
		out = append(out, lockResult{name: impl.name, count: count, elapsed: time.Since(start)})
	}
	return out, nil
}
