/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// suiteFile is the YAML shape of a tgrun suite. Durations are standard Go
// duration strings ("200ms", "1s").
type suiteFile struct {
	Cases []*suiteCaseFile `yaml:"cases"`
}

type suiteCaseFile struct {
	Name string `yaml:"name"`

	// ID is the identity token registered with the guard. Optional; a
	// random one is generated when omitted.
	ID string `yaml:"id"`

	Budget string `yaml:"budget"`
	Sleep  string `yaml:"sleep"`

	// Fail, when non-empty, makes the case fail with this message after
	// its sleep completes.
	Fail string `yaml:"fail"`

	// IgnoreCancel makes the case sleep without observing its context,
	// simulating a body stuck in work that cannot see the cancellation.
	IgnoreCancel bool `yaml:"ignoreCancel"`
}

// suiteCase is a parsed, validated case ready to run.
type suiteCase struct {
	name         string
	id           string
	budget       time.Duration
	sleep        time.Duration
	fail         string
	ignoreCancel bool
}

func loadSuite(path string) ([]*suiteCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not read suite file %s", path)
	}

	var sf suiteFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, errors.WithMessagef(err, "could not parse suite file %s", path)
	}
	if len(sf.Cases) == 0 {
		return nil, errors.Errorf("suite file %s contains no cases", path)
	}

	cases := make([]*suiteCase, 0, len(sf.Cases))
	for i, cf := range sf.Cases {
		if cf.Name == "" {
			return nil, errors.Errorf("case %d has no name", i)
		}

		sc := &suiteCase{
			name:         cf.Name,
			id:           cf.ID,
			fail:         cf.Fail,
			ignoreCancel: cf.IgnoreCancel,
		}
		if sc.id == "" {
			sc.id = uuid.NewString()
		}

		if cf.Budget != "" {
			sc.budget, err = time.ParseDuration(cf.Budget)
			if err != nil {
				return nil, errors.WithMessagef(err, "case %q has an invalid budget", cf.Name)
			}
		}
		if cf.Sleep != "" {
			sc.sleep, err = time.ParseDuration(cf.Sleep)
			if err != nil {
				return nil, errors.WithMessagef(err, "case %q has an invalid sleep", cf.Name)
			}
		}

		cases = append(cases, sc)
	}
	return cases, nil
}

// body is the synthetic work of a suite case: sleep, then succeed or fail as
// configured. Unless ignoreCancel is set, the sleep observes the guard's
// context so abort-mode cancellation takes effect at the next select.
func (sc *suiteCase) body(ctx context.Context) (interface{}, error) {
	if sc.ignoreCancel {
		time.Sleep(sc.sleep)
	} else {
		timer := time.NewTimer(sc.sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}

	if sc.fail != "" {
		return nil, errors.New(sc.fail)
	}
	return sc.name, nil
}
