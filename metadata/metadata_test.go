package metadata_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plexusrt/plexus/metadata"
)

func TestStore_Advance(t *testing.T) {
	store := metadata.NewStore()

	next, err := store.Advance(metadata.Schema, 0)
	require.NoError(t, err)
	require.Equal(t, metadata.Version(1), next)

	// Advancing from a stale base must fail and report the fresh value.
	fresh, err := store.Advance(metadata.Schema, 0)
	require.ErrorIs(t, err, metadata.ErrStaleUpdate)
	require.Equal(t, metadata.Version(1), fresh)

	// Other counters are untouched.
	require.Equal(t, metadata.Version(0), store.Version(metadata.Logs))
}

func TestStore_AdvanceConcurrent(t *testing.T) {
	const (
		writers   = 8
		perWriter = 100
	)

	store := metadata.NewStore()
	wg := sync.WaitGroup{}

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < perWriter; j++ {
				for {
					_, err := store.Advance(metadata.PartitionTable, store.Version(metadata.PartitionTable))
					if err == nil {
						break
					}

					require.True(t, errors.Is(err, metadata.ErrStaleUpdate))
				}
			}
		}()
	}

	wg.Wait()

	// No lost or duplicated increments.
	require.Equal(t, metadata.Version(writers*perWriter), store.Version(metadata.PartitionTable))
}

func TestStore_Witness(t *testing.T) {
	store := metadata.NewStore()

	store.Witness(metadata.Logs, 10)
	require.Equal(t, metadata.Version(10), store.Version(metadata.Logs))

	// Witnessing an older version never moves the counter back.
	store.Witness(metadata.Logs, 4)
	require.Equal(t, metadata.Version(10), store.Version(metadata.Logs))
}

func TestStore_Statuses(t *testing.T) {
	store := metadata.NewStore()

	require.Equal(t, metadata.StatusUnknown, store.Status(metadata.Worker))

	store.SetStatus(metadata.Worker, metadata.StatusStarting)
	store.SetStatus(metadata.Worker, metadata.StatusActive)
	store.SetStatus(metadata.Admin, metadata.StatusShuttingDown)

	require.Equal(t, metadata.StatusActive, store.Status(metadata.Worker))
	require.Equal(t, metadata.StatusShuttingDown, store.Status(metadata.Admin))
	require.Equal(t, metadata.StatusUnknown, store.Status(metadata.LogServer))
}
