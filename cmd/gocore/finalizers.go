package main

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gocore/pkg/runtime/finalizer"
	"gocore/pkg/runtime/heap"
	"gocore/pkg/runtime/lock"
)

type finResult struct {
	registered int
	run        int64
	freed      int
	size       int
}

// runFinalizers has every worker allocate objects and register a
// finalizer on each, dropping the finalizer of every third one. A sweep
// then treats every other object as unreachable.
func runFinalizers(workers, objects int) (finResult, error) {
	h := heap.New(0)
	m := lock.NewM()
	defer h.Release(m)
	reg := finalizer.New(h)

	var ran atomic.Int64
	all := make([][]uintptr, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			m := lock.NewM()
			for i := 0; i < objects; i++ {
				p, err := h.Alloc(m, 32)
				if err != nil {
					return err
				}
				reg.Add(m, p, func(uintptr) { ran.Add(1) }, 0)
				if i%3 == 0 {
					reg.Add(m, p, nil, 0)
				}
				all[w] = append(all[w], p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return finResult{}, err
	}

	st := reg.Stats(m)
	res := finResult{registered: st.Live, size: st.Size}
	if st.Load() > 0.75 {
		return res, fmt.Errorf("table over 3/4 full: %+v", st)
	}

	reachable := make(map[uintptr]bool)
	want := 0
	for _, ps := range all {
		for i, p := range ps {
			if i%2 == 0 {
				reachable[p] = true
			} else if i%3 != 0 {
				want++
			}
		}
	}
	queue, freed, err := reg.Sweep(m, func(p uintptr) bool { return reachable[p] })
	if err != nil {
		return res, err
	}
	finalizer.Run(queue)
	res.run = ran.Load()
	res.freed = freed
	if res.run != int64(want) {
		return res, fmt.Errorf("%d finalizers ran, want %d", res.run, want)
	}
	return res, nil
}
