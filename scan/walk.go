package scan

import (
	"context"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
	"github.com/Lighty-Launcher/LightyUpdater/snapshot"
)

// candidate is a file found during the synchronous collection pass,
// ready to be streamed through the bounded-concurrency hash step.
type candidate struct {
	fqn              string // full path on disk
	relUnderCategory string // path relative to the category dir, slash-separated
}

// collectCandidates recursively walks root (if recurse) or lists root's
// immediate children (if !recurse), filtering by ext when non-empty.
// Splits into a synchronous collection pass followed by a later
// bounded-concurrency hash pass.
func collectCandidates(root string, recurse bool, ext string) ([]candidate, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cmn.NewIOError("scan.collect", root, err)
	}

	var out []candidate
	if !recurse {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, cmn.NewIOError("scan.collect", root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ext != "" && filepath.Ext(e.Name()) != ext {
				continue
			}
			out = append(out, candidate{fqn: filepath.Join(root, e.Name()), relUnderCategory: e.Name()})
		}
		return out, nil
	}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(fqn string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if ext != "" && filepath.Ext(fqn) != ext {
				return nil
			}
			rel, err := filepath.Rel(root, fqn)
			if err != nil {
				return err
			}
			out = append(out, candidate{fqn: fqn, relUnderCategory: cmn.ToSlash(rel)})
			return nil
		},
		Unsorted: true,
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, cmn.NewIOError("scan.collect", root, err)
	}
	return out, nil
}

// hashCandidates streams candidates through a semaphore of the given
// capacity, hashing each file concurrently and applying mapFn to build
// the final record. Individual file errors are logged and filtered
//; a context cancellation (from errgroup.WithContext on a sibling
// category's failure) stops issuing new work.
func hashCandidates(ctx context.Context, opt Options, cands []candidate, capacity int, mapFn func(candidate, string, int64) snapshot.Record) ([]snapshot.Record, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	sem := cmn.NewSemaphore(capacity)
	results := make([]snapshot.Record, len(cands))
	keep := make([]bool, len(cands))

	type job struct {
		idx int
		c   candidate
	}
	jobs := make(chan job)
	done := make(chan struct{})

	go func() {
		defer close(jobs)
		for i, c := range cands {
			select {
			case jobs <- job{idx: i, c: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := capacity
	if workers <= 0 {
		workers = 1
	}
	if workers > len(cands) {
		workers = len(cands)
	}

	// results/keep are written at disjoint indices -- each candidate is
	// claimed by exactly one worker via the jobs channel -- so no mutex
	// guards them despite the concurrent writers.
	doWork := func() {
		for j := range jobs {
			sem.Acquire()
			digest, size, err := cmn.DigestFile(j.c.fqn, opt.ChecksumBufferSize)
			sem.Release()
			if err != nil {
				logWarn(opt, "scan.hash: skipping unreadable file", j.c.fqn, err)
				continue
			}
			results[j.idx] = mapFn(j.c, digest, size)
			keep[j.idx] = true
		}
	}

	for i := 0; i < workers; i++ {
		go func() {
			doWork()
			done <- struct{}{}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	out := make([]snapshot.Record, 0, len(cands))
	for i, k := range keep {
		if k {
			out = append(out, results[i])
		}
	}
	return out, nil
}

