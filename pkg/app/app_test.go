package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/edgefunc/pkg/types"
	"github.com/cuemby/edgefunc/pkg/worker"
)

const echoScript = `
function onRequest(event) {
    respondWith({ status: 200, statusText: "OK", headers: {}, body: "" });
}
`

func fakeSpawn(spawnCount *int32, idleTimeout time.Duration) SpawnFunc {
	return func(descriptor types.DeploymentDescriptor, cwd, entryScript string) (*worker.Worker, error) {
		atomic.AddInt32(spawnCount, 1)
		return worker.Spawn(worker.Config{
			TenantID:      descriptor.TenantID,
			Descriptor:    descriptor,
			Cwd:           cwd,
			EntryScript:   entryScript,
			QueueCapacity: 4,
			IdleTimeout:   idleTimeout,
		})
	}
}

func TestGetOrSpawnWorkerSpawnsOnce(t *testing.T) {
	var spawnCount int32
	a := New("tenant-1", fakeSpawn(&spawnCount, time.Second))
	descriptor := types.DeploymentDescriptor{TenantID: "tenant-1"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.GetOrSpawnWorker(descriptor, "/tmp/app", echoScript)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&spawnCount))
	assert.Equal(t, types.AppStateLive, a.State())
}

func TestAppSlotClearsAfterWorkerExits(t *testing.T) {
	var spawnCount int32
	a := New("tenant-1", fakeSpawn(&spawnCount, 30*time.Millisecond))
	descriptor := types.DeploymentDescriptor{TenantID: "tenant-1"}

	_, err := a.GetOrSpawnWorker(descriptor, "/tmp/app", echoScript)
	require.NoError(t, err)
	require.Equal(t, types.AppStateLive, a.State())

	require.Eventually(t, func() bool {
		return a.State() == types.AppStateEmpty
	}, time.Second, 5*time.Millisecond, "slot should clear after worker idles out")
}

func TestGetOrSpawnWorkerRespawnsAfterSlotClears(t *testing.T) {
	var spawnCount int32
	a := New("tenant-1", fakeSpawn(&spawnCount, 20*time.Millisecond))
	descriptor := types.DeploymentDescriptor{TenantID: "tenant-1"}

	_, err := a.GetOrSpawnWorker(descriptor, "/tmp/app", echoScript)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return a.State() == types.AppStateEmpty
	}, time.Second, 5*time.Millisecond)

	_, err = a.GetOrSpawnWorker(descriptor, "/tmp/app", echoScript)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&spawnCount))
}
