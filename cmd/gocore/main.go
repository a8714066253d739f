// Command gocore exercises the runtime locks, the finalizer registry and
// the method wrapper generator under load and checks their results.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gocore/pkg/config"
)

func main() {
	workers := flag.Int("workers", 4, "concurrent workers")
	iters := flag.Int("iters", 10000, "lock acquisitions per worker")
	objects := flag.Int("objects", 1000, "heap objects per worker in the finalizer workload")
	debug := flag.String("debug", "", "debug letters (e, h, g, r, K)")
	arch := flag.String("arch", "", "wrapper target architecture")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *debug != "" {
		if cfg.Flags, err = config.Parse(*debug); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *arch != "" {
		if cfg.Arch, err = config.LookupArch(*arch); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	lr, err := runLocks(*workers, *iters)
	if err != nil {
		log.Fatalf("locks: %v", err)
	}
	for _, r := range lr {
		fmt.Printf("lock %-8s %d workers x %d = %d in %v\n", r.name, *workers, *iters, r.count, r.elapsed)
	}

	fr, err := runFinalizers(*workers, *objects)
	if err != nil {
		log.Fatalf("finalizers: %v", err)
	}
	fmt.Printf("finalizers: %d registered, %d run, %d freed, table %d slots\n",
		fr.registered, fr.run, fr.freed, fr.size)

	wr, err := runWrappers(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("wrappers: %v", err)
	}
	fmt.Printf("wrappers: %d generated, %d calls matched\n", wr.generated, wr.matched)
}
