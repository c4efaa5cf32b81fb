package epoch_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikNatanael/knaster-sub000/internal/epoch"
)

func TestClock(t *testing.T) {
	c := epoch.NewClock()
	assert.Equal(t, uint64(0), c.Allocated())
	assert.Equal(t, uint64(0), c.Installed())

	assert.Equal(t, uint64(1), c.Allocate())
	assert.Equal(t, uint64(2), c.Allocate())
	assert.Equal(t, uint64(2), c.Allocated())

	c.Install(1)
	assert.Equal(t, uint64(1), c.Installed())
}

func TestReapWaitsForInstall(t *testing.T) {
	c := epoch.NewClock()
	r := epoch.NewReaper(c)

	freed := 0
	r.Stage(func() { freed++ })
	r.Stage(func() { freed++ })
	assert.Equal(t, 2, r.Pending())

	// staged but unsealed resources are still referenced by the live plan
	assert.Equal(t, 0, r.Reap())

	e := c.Allocate()
	r.Seal(e)
	assert.Equal(t, 0, r.Reap())
	assert.Equal(t, 0, freed)

	c.Install(e)
	assert.Equal(t, 2, r.Reap())
	assert.Equal(t, 2, freed)
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, uint64(2), r.Reclaimed())
}

// Drives n synthetic generations with randomized install progress and checks
// that nothing is ever freed before its retiring epoch is installed, and
// that everything is freed once all epochs are.
func TestReclamationOrdering(t *testing.T) {
	const generations = 200
	rnd := rand.New(rand.NewSource(1))

	c := epoch.NewClock()
	r := epoch.NewReaper(c)

	freedAt := make(map[int]uint64) // retiree id -> installed epoch at free time
	sealedAs := make(map[int]uint64)
	id := 0

	for g := 0; g < generations; g++ {
		staged := []int{}
		for i := rnd.Intn(3); i > 0; i-- {
			rid := id
			id++
			staged = append(staged, rid)
			r.Stage(func() { freedAt[rid] = c.Installed() })
		}
		e := c.Allocate()
		r.Seal(e)
		for _, rid := range staged {
			sealedAs[rid] = e
		}

		// audio side lags behind by a random number of generations
		if rnd.Intn(4) > 0 {
			lag := uint64(rnd.Intn(3))
			if e > lag {
				c.Install(e - lag)
			}
		}
		r.Reap()

		for rid, at := range freedAt {
			assert.True(t, sealedAs[rid] <= at,
				"retiree %d freed at installed epoch %d, sealed as %d", rid, at, sealedAs[rid])
		}
	}

	c.Install(c.Allocated())
	r.Reap()
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, uint64(id), r.Reclaimed())
	assert.Equal(t, id, len(freedAt))
}

func TestFlush(t *testing.T) {
	c := epoch.NewClock()
	r := epoch.NewReaper(c)

	freed := 0
	r.Stage(func() { freed++ })
	r.Seal(c.Allocate())
	r.Stage(func() { freed++ })

	assert.Equal(t, 2, r.Flush())
	assert.Equal(t, 2, freed)
	assert.Equal(t, 0, r.Pending())
}
