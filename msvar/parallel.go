// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"runtime"
	"sync"
)

// forEachRegime runs job(k) for k = 0..K-1 on at most workers goroutines and
// returns the error of the lowest failing regime, so the outcome does not
// depend on scheduling. Jobs must only read shared state and write to slots
// owned by their own regime.
func forEachRegime(K, workers int, job func(k int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > K {
		workers = K
	}

	errs := make([]error, K)

	if workers <= 1 {
		for k := 0; k < K; k++ {
			errs[k] = job(k)
		}
		return firstError(errs)
	}

	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)

	// Worker function
	worker := func() {
		defer wg.Done()
		for k := range jobs {
			errs[k] = job(k)
		}
	}

	// Start workers
	for w := 0; w < workers; w++ {
		go worker()
	}

	// Feed jobs
	for k := 0; k < K; k++ {
		jobs <- k
	}
	close(jobs)

	wg.Wait()
	return firstError(errs)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
