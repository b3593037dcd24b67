/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/guardlabs/timeguard"
	"github.com/guardlabs/timeguard/pkg/logging"
)

type verdict struct {
	name    string
	elapsed time.Duration
	err     error
	timeout *timeguard.TimeoutError
}

// execute runs the suite under one shared guard and writes one verdict line
// per case, in suite order. It returns a non-nil error if any case failed or
// timed out, so tgrun exits non-zero for a red suite.
func (a *arguments) execute(out io.Writer, logger logging.Logger) error {
	cases, err := loadSuite(a.suitePath)
	if err != nil {
		return err
	}

	guard := timeguard.New(&timeguard.Config{
		DefaultBudget: a.defaultBudget,
		Policy:        a.policy,
		PollInterval:  a.pollInterval,
		Logger:        logging.Synchronize(logger),
	})

	verdicts := make([]*verdict, len(cases))
	indexC := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < a.parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexC {
				verdicts[i] = runCase(guard, cases[i])
			}
		}()
	}
	for i := range cases {
		indexC <- i
	}
	close(indexC)
	wg.Wait()

	failed := 0
	for _, v := range verdicts {
		switch {
		case v.timeout != nil:
			failed++
			fmt.Fprintf(out, "TIMEOUT  %s  budget=%v elapsed=%v\n", v.name, v.timeout.Budget, v.timeout.Elapsed.Round(time.Millisecond))
		case v.err != nil:
			failed++
			fmt.Fprintf(out, "FAIL     %s  %s  (%v)\n", v.name, v.err, v.elapsed.Round(time.Millisecond))
		default:
			fmt.Fprintf(out, "ok       %s  (%v)\n", v.name, v.elapsed.Round(time.Millisecond))
		}
	}

	fmt.Fprintf(out, "\n%d cases, %d passed, %d failed\n", len(cases), len(cases)-failed, failed)
	if failed > 0 {
		return errors.Errorf("%d of %d cases did not pass", failed, len(cases))
	}
	return nil
}

// runCase executes one case in the calling (worker) goroutine, which is
// exactly the guard's contract: the body runs where Run is invoked.
func runCase(guard *timeguard.Guard, sc *suiteCase) *verdict {
	start := time.Now()
	_, err := guard.Run(context.Background(), timeguard.CaseID(sc.id), sc.budget, sc.body)

	v := &verdict{
		name:    sc.name,
		elapsed: time.Since(start),
		err:     err,
	}
	var terr *timeguard.TimeoutError
	if stderrors.As(err, &terr) {
		v.timeout = terr
	}
	return v
}
