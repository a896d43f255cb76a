// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package goadcs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// System runs the estimators of every cabin of a configuration.
// Cabins share no state, so they may be stepped concurrently.
type System struct {
	Cfg    *Config
	Cabins []*Cabin
}

func NewSystem(cfg *Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &System{Cfg: cfg}
	for i := range cfg.Cabins {
		c, err := NewCabin(cfg, i)
		if err != nil {
			return nil, err
		}
		s.Cabins = append(s.Cabins, c)
	}
	return s, nil
}

// Step runs one control cycle of every cabin. ins[i] is the input of cabin i.
func (s *System) Step(ctx context.Context, ins []CycleInput) ([]CycleOutput, error) {
	if len(ins) != len(s.Cabins) {
		return nil, fmt.Errorf("got %d cycle inputs for %d cabins", len(ins), len(s.Cabins))
	}
	outs := make([]CycleOutput, len(s.Cabins))

	if !s.Cfg.Parallel {
		for i, c := range s.Cabins {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outs[i] = c.Step(ins[i])
		}
		return outs, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range s.Cabins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outs[i] = c.Step(ins[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}
