package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_Snapshot(t *testing.T) {
	c := New()
	c.IncEntriesPosted()
	c.IncEntriesPosted()
	c.IncEntriesReversed()
	c.AddRowsImported(10)
	c.AddDuplicatesDropped(3)

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.EntriesPosted)
	assert.Equal(t, uint64(1), snap.EntriesReversed)
	assert.Equal(t, uint64(10), snap.RowsImported)
	assert.Equal(t, uint64(3), snap.DuplicatesDropped)
	assert.Equal(t, uint64(0), snap.CandidatesAccepted)
}

func TestCounters_ConcurrentIncrements(t *testing.T) {
	c := New()
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.IncEntriesPosted()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(workers*perWorker), c.Snapshot().EntriesPosted)
}
