// Package render bounces graphs into files, as fast as the machine allows.
package render

import (
	"context"

	"golang.org/x/sync/errgroup"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/signal"
)

type (
	// Target receives rendered blocks. Open is called once before the
	// first block, Flush once after the last one.
	Target interface {
		Open(sampleRate, numChannels int) error
		Write(b signal.Float64) error
		Flush() error
	}

	// Pair binds one runner to one target for BounceAll.
	Pair struct {
		Runner *knaster.Runner
		Target Target
	}
)

// Bounce renders up to the given number of blocks from the runner into the
// target. Bounce is the graph's audio role while it runs. It stops early
// when the context is done or the graph raises its removal flag; the
// target is flushed either way.
func Bounce(ctx context.Context, r *knaster.Runner, t Target, blocks int) (err error) {
	if err = t.Open(r.SampleRate(), r.Outputs()); err != nil {
		return err
	}
	defer func() {
		if ferr := t.Flush(); err == nil {
			err = ferr
		}
	}()
	in := signal.EmptyFloat64(r.Inputs(), r.BlockSize())
	out := signal.EmptyFloat64(r.Outputs(), r.BlockSize())
	for b := 0; b < blocks; b++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if r.RemovalRaised() {
			return nil
		}
		r.ProcessBlock(in, out)
		if err = t.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// BounceAll renders every pair concurrently and waits for all of them. The
// first error cancels the remaining bounces.
func BounceAll(ctx context.Context, blocks int, pairs ...Pair) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i := range pairs {
		p := pairs[i]
		eg.Go(func() error {
			return Bounce(ctx, p.Runner, p.Target, blocks)
		})
	}
	return eg.Wait()
}
