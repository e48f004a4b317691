// Package gateway implements the single coordination point for all remote
// traffic: it owns the registered Remote Adapters (one per cluster), the
// remote-job-status cache, and the concurrency limiter that bounds how
// many SSH/SCP subprocesses may be in flight at once.
package gateway

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/remote"
)

// maxConcurrentRemoteCalls bounds simultaneous outbound ssh/scp
// subprocesses independent of the Worker Pool's size — a login node can
// refuse a flood of concurrent sessions even when workers are idle.
const maxConcurrentRemoteCalls = 4

// Gateway is constructed explicitly and passed to Request constructors
// (spec.md §9): it is deliberately not a package-level singleton reached
// through a global accessor, so tests can hold an isolated instance
// instead of sharing process-wide state.
type Gateway struct {
	logger common.Logger

	mu        sync.Mutex
	remotes   map[string]remote.Adapter
	cache     map[string]common.JobStat
	lastUpdate time.Time

	sem *semaphore.Weighted
}

// New constructs an empty Gateway.
func New(logger common.Logger) *Gateway {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Gateway{
		logger:  logger,
		remotes: make(map[string]remote.Adapter),
		cache:   make(map[string]common.JobStat),
		sem:     semaphore.NewWeighted(maxConcurrentRemoteCalls),
	}
}

// Reset clears all registered adapters and the cache. Exposed for tests
// that want to reuse one Gateway across scenarios without reconstructing
// every collaborator.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remotes = make(map[string]remote.Adapter)
	g.cache = make(map[string]common.JobStat)
	g.lastUpdate = time.Time{}
}

func (g *Gateway) acquire(ctx context.Context) func() {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return func() {}
	}
	return func() { g.sem.Release(1) }
}

// RequestRemote registers (or re-registers, if the batch system changed)
// a Remote Adapter for serverName, then issues a cheap `ls` probe. On
// probe failure the adapter is discarded and false is returned.
func (g *Gateway) RequestRemote(ctx context.Context, serverName, batchSystem string, shared bool) bool {
	g.mu.Lock()
	if existing, ok := g.remotes[serverName]; ok && existing.BatchSystem() == batchSystem {
		g.mu.Unlock()
		return true
	}
	g.mu.Unlock()

	adapter := remote.New(batchSystem, remote.Config{ServerName: serverName, Shared: shared}, g.logger)
	if adapter == nil {
		g.logger.Log(common.LogError, "request_remote: no adapter available for batch system %q", batchSystem)
		return false
	}

	release := g.acquire(ctx)
	ok, _ := adapter.RunCommand(ctx, []string{"ls"})
	release()
	if !ok {
		g.logger.Log(common.LogError, "remote server [%s] refuses to connect", serverName)
		return false
	}

	g.mu.Lock()
	g.remotes[serverName] = adapter
	g.mu.Unlock()
	return true
}

// Register installs a pre-built adapter directly, bypassing the connect
// probe RequestRemote performs. This is the seam tests use to inject a
// fake Adapter instead of shelling out to a real cluster.
func (g *Gateway) Register(remoteName string, adapter remote.Adapter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remotes[remoteName] = adapter
}

func (g *Gateway) adapterFor(remoteName string) (remote.Adapter, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.remotes[remoteName]
	return a, ok
}

// JobStats consults the cache first: a one-shot pending-confirm entry
// (note == "P") is returned as-is and its note cleared. Otherwise the
// full job-status list is fetched from the adapter, the cache is
// replaced atomically, and the entry for jobName is returned.
func (g *Gateway) JobStats(ctx context.Context, remoteName, user, jobName string) (common.JobStat, bool) {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return common.JobStat{}, false
	}

	g.mu.Lock()
	if stat, found := g.cache[jobName]; found && stat.Note == "P" {
		stat.Note = ""
		g.cache[jobName] = stat
		g.mu.Unlock()
		return stat, true
	}
	g.mu.Unlock()

	release := g.acquire(ctx)
	stats := adapter.JobStatus(ctx, user)
	release()

	g.mu.Lock()
	g.cache = make(map[string]common.JobStat, len(stats))
	for _, s := range stats {
		g.cache[s.Name] = s
	}
	g.lastUpdate = common.Now()
	stat, found := g.cache[jobName]
	g.mu.Unlock()

	return stat, found
}

// SeedPending installs a one-shot cache entry for jobName, returned as-is
// by the next JobStats call and then cleared. The Supervisor calls this
// right after a successful resubmission, so a poll cycle that races ahead
// of the scheduler's own bookkeeping still observes the new job id
// instead of treating it as unknown.
func (g *Gateway) SeedPending(jobName string, stat common.JobStat) {
	stat.Note = "P"
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[jobName] = stat
}

// Submit copies file to remoteFolder on remoteName and submits it,
// returning the scheduler's raw submission output.
func (g *Gateway) Submit(ctx context.Context, remoteName, remoteFolder, file string) string {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return ""
	}
	release := g.acquire(ctx)
	defer release()
	return adapter.CopyAndSubmit(ctx, file, remoteFolder)
}

// Cancel best-effort cancels jobID on remoteName.
func (g *Gateway) Cancel(ctx context.Context, remoteName, jobID string) {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return
	}
	release := g.acquire(ctx)
	defer release()
	adapter.CancelJob(ctx, jobID)
}

// RunOnRemote runs an arbitrary command on remoteName.
func (g *Gateway) RunOnRemote(ctx context.Context, remoteName string, cmd []string) (bool, string) {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return false, ""
	}
	release := g.acquire(ctx)
	defer release()
	return adapter.RunCommand(ctx, cmd)
}

// TailLog returns the trailing n lines of jobID's stdout file under workDir.
func (g *Gateway) TailLog(ctx context.Context, remoteName, jobID, workDir string, n int) []string {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return nil
	}
	release := g.acquire(ctx)
	defer release()
	return adapter.TailLog(ctx, jobID, workDir, n)
}

// CurrentTime returns remoteName's clock, used by the Supervisor to
// project a running job's completion time.
func (g *Gateway) CurrentTime(ctx context.Context, remoteName string) (time.Time, bool) {
	adapter, ok := g.adapterFor(remoteName)
	if !ok {
		g.logger.Log(common.LogError, "no remote object named %s is requested", remoteName)
		return time.Time{}, false
	}
	release := g.acquire(ctx)
	defer release()
	return adapter.CurrentTime(ctx)
}
