/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/guardlabs/timeguard"
	"github.com/guardlabs/timeguard/pkg/logging"
)

// recordingLogger captures log entries so specs can assert on warnings
// emitted by the watchdog. Safe for concurrent use.
type recordingLogger struct {
	mutex   sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level logging.LogLevel
	text  string
	args  []interface{}
}

func (rl *recordingLogger) Log(level logging.LogLevel, text string, args ...interface{}) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.entries = append(rl.entries, recordedEntry{level: level, text: text, args: args})
}

// warnsFor counts warn-level entries mentioning the given case identity.
func (rl *recordingLogger) warnsFor(id timeguard.CaseID) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count := 0
	for _, e := range rl.entries {
		if e.level != logging.LevelWarn {
			continue
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == "id" && e.args[i+1] == string(id) {
				count++
			}
		}
	}
	return count
}

// sleeper returns a body that sleeps for d, observing the context, and then
// returns result.
func sleeper(d time.Duration, result interface{}) timeguard.Body {
	return func(ctx context.Context) (interface{}, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return result, nil
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}

var _ = Describe("Guard", func() {
	var (
		logger *recordingLogger
		guard  *timeguard.Guard
		config *timeguard.Config
	)

	BeforeEach(func() {
		logger = &recordingLogger{}
		config = &timeguard.Config{
			PollInterval: 10 * time.Millisecond,
			Logger:       logger,
		}
	})

	JustBeforeEach(func() {
		guard = timeguard.New(config)
	})

	// Every test must leave the registry drained so the watchdog can exit;
	// the suite-level goleak check catches violations.
	AfterEach(func() {
		Eventually(func() bool {
			return guard.Status().WatchdogLive
		}, time.Second, 5*time.Millisecond).Should(BeFalse())
	})

	Describe("a case with no effective budget", func() {
		It("runs the body directly with no tracking", func() {
			result, err := guard.Run(context.Background(), "untracked", 0, func(ctx context.Context) (interface{}, error) {
				s := guard.Status()
				Expect(s.Cases).To(BeEmpty())
				Expect(s.WatchdogLive).To(BeFalse())
				return 42, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(42))
		})

		It("passes the body's own error through unchanged", func() {
			boom := errors.New("boom")
			_, err := guard.Run(context.Background(), "untracked-err", 0, func(ctx context.Context) (interface{}, error) {
				return nil, boom
			})
			Expect(err).To(BeIdenticalTo(boom))
		})
	})

	Describe("a case that completes within its budget", func() {
		It("returns the body's value with no timeout error", func() {
			result, err := guard.Run(context.Background(), "quick", 1*time.Second, sleeper(20*time.Millisecond, 42))
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(42))
			Expect(logger.warnsFor("quick")).To(BeZero())
		})

		It("returns the body's own failure, never converted to a timeout", func() {
			boom := errors.New("assertion failed")
			_, err := guard.Run(context.Background(), "quick-fail", 1*time.Second, func(ctx context.Context) (interface{}, error) {
				return nil, boom
			})
			Expect(err).To(BeIdenticalTo(boom))
		})

		It("wins even when finishing close to the budget", func() {
			// Completion and overdue detection are ordered under one
			// lock, so a body that returns before exceeding its budget
			// can never be flagged, regardless of poll timing.
			result, err := guard.Run(context.Background(), "close-call", 250*time.Millisecond, sleeper(100*time.Millisecond, "made it"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("made it"))
		})
	})

	Describe("a case that exceeds its budget under the abort policy", func() {
		It("is aborted within roughly one polling interval past the budget", func() {
			start := time.Now()
			_, err := guard.Run(context.Background(), "hung", 100*time.Millisecond, sleeper(5*time.Second, nil))
			elapsed := time.Since(start)

			var terr *timeguard.TimeoutError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.ID).To(Equal(timeguard.CaseID("hung")))
			Expect(terr.Budget).To(Equal(100 * time.Millisecond))
			Expect(terr.Elapsed).To(BeNumerically(">", 100*time.Millisecond))

			// Observed at poll granularity, not at the body's natural end.
			Expect(elapsed).To(BeNumerically(">=", 100*time.Millisecond))
			Expect(elapsed).To(BeNumerically("<", 1*time.Second))

			Expect(guard.Status().Cases).To(BeEmpty())
		})

		It("exposes the timeout as the context cancellation cause", func() {
			var observed error
			_, err := guard.Run(context.Background(), "cause", 50*time.Millisecond, func(ctx context.Context) (interface{}, error) {
				<-ctx.Done()
				observed = context.Cause(ctx)
				return nil, observed
			})

			var terr *timeguard.TimeoutError
			Expect(errors.As(observed, &terr)).To(BeTrue())
			Expect(errors.As(err, &terr)).To(BeTrue())
		})

		It("reports the timeout even if the body ignores the cancellation", func() {
			// The watchdog flagged the case first; the body's late success
			// must not overturn the verdict.
			_, err := guard.Run(context.Background(), "oblivious", 50*time.Millisecond, func(ctx context.Context) (interface{}, error) {
				time.Sleep(250 * time.Millisecond)
				return "too late", nil
			})

			var terr *timeguard.TimeoutError
			Expect(errors.As(err, &terr)).To(BeTrue())
		})
	})

	Describe("a case that exceeds its budget under the continue policy", func() {
		BeforeEach(func() {
			config.Policy = timeguard.PolicyContinue
		})

		It("warns exactly once and returns the body's own outcome", func() {
			result, err := guard.Run(context.Background(), "slow", 30*time.Millisecond, func(ctx context.Context) (interface{}, error) {
				// Several polls pass while this case is overdue.
				time.Sleep(150 * time.Millisecond)
				Expect(ctx.Err()).NotTo(HaveOccurred())
				return "finished anyway", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("finished anyway"))
			Expect(logger.warnsFor("slow")).To(Equal(1))
		})

		It("warns again for a fresh case reusing a finished identity", func() {
			for i := 0; i < 2; i++ {
				_, err := guard.Run(context.Background(), "reused", 30*time.Millisecond, sleeper(120*time.Millisecond, nil))
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(logger.warnsFor("reused")).To(Equal(2))
		})
	})

	Describe("identity handling", func() {
		It("rejects a duplicate identity without running the body", func() {
			release := make(chan struct{})
			firstDone := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(firstDone)
				_, err := guard.Run(context.Background(), "dup", 5*time.Second, func(ctx context.Context) (interface{}, error) {
					<-release
					return nil, nil
				})
				Expect(err).NotTo(HaveOccurred())
			}()

			// Wait until the first case is tracked.
			Eventually(func() int {
				return len(guard.Status().Cases)
			}).Should(Equal(1))

			ran := false
			_, err := guard.Run(context.Background(), "dup", 5*time.Second, func(ctx context.Context) (interface{}, error) {
				ran = true
				return nil, nil
			})
			Expect(errors.Is(err, timeguard.ErrDuplicateIdentity)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("dup"))
			Expect(ran).To(BeFalse())

			close(release)
			Eventually(firstDone).Should(BeClosed())
		})

		It("tracks many concurrent cases with distinct identities", func() {
			var wg sync.WaitGroup
			errs := make([]error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					id := timeguard.CaseID(fmt.Sprintf("worker-%d", i))
					_, errs[i] = guard.Run(context.Background(), id, 2*time.Second, sleeper(30*time.Millisecond, nil))
				}(i)
			}
			wg.Wait()
			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})

	Describe("two concurrent cases with different budgets", func() {
		It("only times out the overdue one", func() {
			var (
				wg      sync.WaitGroup
				aErr    error
				bResult interface{}
				bErr    error
			)

			wg.Add(2)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, aErr = guard.Run(context.Background(), "a", 80*time.Millisecond, sleeper(5*time.Second, nil))
			}()
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				bResult, bErr = guard.Run(context.Background(), "b", 2*time.Second, sleeper(200*time.Millisecond, "b-ok"))
			}()
			wg.Wait()

			var terr *timeguard.TimeoutError
			Expect(errors.As(aErr, &terr)).To(BeTrue())
			Expect(terr.ID).To(Equal(timeguard.CaseID("a")))

			Expect(bErr).NotTo(HaveOccurred())
			Expect(bResult).To(Equal("b-ok"))
		})
	})

	Describe("watchdog lifecycle", func() {
		It("starts on first registration and exits once the registry drains", func() {
			watchdogSeen := false
			_, err := guard.Run(context.Background(), "first", 1*time.Second, func(ctx context.Context) (interface{}, error) {
				watchdogSeen = guard.Status().WatchdogLive
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(watchdogSeen).To(BeTrue())

			Eventually(func() bool {
				return guard.Status().WatchdogLive
			}).Should(BeFalse())

			// A later registration transparently restarts it.
			_, err = guard.Run(context.Background(), "second", 1*time.Second, func(ctx context.Context) (interface{}, error) {
				Expect(guard.Status().WatchdogLive).To(BeTrue())
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("status snapshots", func() {
		It("describes tracked cases while they run", func() {
			_, err := guard.Run(context.Background(), "observed", 1*time.Second, func(ctx context.Context) (interface{}, error) {
				s := guard.Status()
				Expect(s.Cases).To(HaveLen(1))
				Expect(s.Cases[0].ID).To(Equal("observed"))
				Expect(s.Cases[0].Budget).To(Equal(1 * time.Second))
				Expect(s.Pretty()).To(ContainSubstring("observed"))
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
