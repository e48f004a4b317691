// Package supervisor implements the periodic control loop ("AutoSubmitter")
// that polls remote job state, diagnoses slow nodes, and schedules
// resubmission. See spec.md §4.6 for the full state machine.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/AmzelLab/fiesta3/internal/batchscript"
	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/gateway"
	"github.com/AmzelLab/fiesta3/internal/manager"
	"github.com/AmzelLab/fiesta3/internal/request"
	"github.com/AmzelLab/fiesta3/internal/specialist"
	"github.com/AmzelLab/fiesta3/internal/worker"
)

// Options configures cadence and snapshot destination. Zero values fall
// back to the spec's defaults (CHECK_EVERY_N=1800s, GAP_TIME=30s).
type Options struct {
	CheckEvery   time.Duration
	GapTime      time.Duration
	SnapshotPath string
}

func (o Options) withDefaults() Options {
	if o.CheckEvery <= 0 {
		o.CheckEvery = 1800 * time.Second
	}
	if o.GapTime <= 0 {
		o.GapTime = 30 * time.Second
	}
	if o.SnapshotPath == "" {
		o.SnapshotPath = "jobs_current.json"
	}
	return o
}

// Supervisor is the periodic driver. A single instance manages exactly
// one remote cluster and one user, matching the original design (a
// Submitter works with a single remote computing center).
type Supervisor struct {
	logger     common.Logger
	gw         *gateway.Gateway
	mgr        *manager.Manager
	remoteName string
	user       string
	opts       Options

	inFlightMu sync.Mutex
	inFlight   map[string]bool
}

// New constructs a Supervisor. mgr.TakeOffice must already have been
// called so its Worker Pool exists.
func New(gw *gateway.Gateway, mgr *manager.Manager, remoteName, user string, opts Options, logger common.Logger) *Supervisor {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Supervisor{
		logger:     logger,
		gw:         gw,
		mgr:        mgr,
		remoteName: remoteName,
		user:       user,
		opts:       opts.withDefaults(),
		inFlight:   make(map[string]bool),
	}
}

// Run drives the periodic cycle until ctx is cancelled. Job check-in
// (name-length/duplicate rejection, jobId/expCompletion/makeup reset) is
// performed earlier, by Manager.AddJobs; Run only ever polls and mutates
// already-accepted JobRecords.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Log(common.LogInfo, "AutoSubmitter engine starts, managing remote [%s] user [%s]", s.remoteName, s.user)

	for {
		s.cycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.Log(common.LogInfo, "terminating")
			return
		case <-time.After(s.opts.CheckEvery):
		}
	}
}

// cycle runs one iteration of the periodic loop: refresh status, apply
// the slow-node rule, and schedule resubmission for jobs due.
func (s *Supervisor) cycle(ctx context.Context) {
	s.logger.Log(common.LogInfo, "update job status from remote")

	for _, sp := range s.mgr.Specialists() {
		for _, snapshot := range sp.Jobs() {
			job, ok := sp.Job(snapshot.Name)
			if !ok {
				continue
			}
			s.refreshJob(ctx, sp, job)
			if job.ExpCompletion <= int64(s.opts.CheckEvery/time.Second) {
				s.maybeScheduleResubmit(ctx, sp, job)
			}
		}
	}
}

// refreshJob fetches this job's stat from the Gateway and applies
// spec.md §4.6 step 2 in place.
func (s *Supervisor) refreshJob(ctx context.Context, sp specialist.Specialist, job *common.JobRecord) {
	stat, found := s.gw.JobStats(ctx, s.remoteName, s.user, job.Name)
	if !found {
		// Not (yet) visible on the scheduler's queue: neither running nor
		// known to have failed, so we don't touch expCompletion here.
		return
	}
	sp.SetJobStat(job.Name, stat)
	job.JobID = stat.ID

	if stat.State != "R" {
		job.ExpCompletion = common.MaxExpCompletion
		return
	}

	job.ExpCompletion = s.timeToCompletion(ctx, job)

	limit := common.ParseHMS(job.TimeLimit)
	if job.ExpCompletion > limit {
		s.logger.Log(common.LogError, "cancel job [%s] due to slow node [%s]", job.Name, stat.Machine)
		s.gw.Cancel(ctx, s.remoteName, job.JobID)

		s.logger.Log(common.LogInfo, "update exclusion list with %s", stat.Machine)
		if err := batchscript.AddExclusionNode(job, stat.Machine); err != nil {
			s.logger.Log(common.LogError, "failed to persist exclusion list for [%s]: %v", job.Name, err)
		}

		job.ExpCompletion = 0
		job.Makeup = true
	} else {
		job.Makeup = false
	}
}

// timeToCompletion computes the projected seconds-to-completion for a
// running job, or common.MaxExpCompletion if either half of the
// computation (remote clock, projected-completion log line) is unknown.
func (s *Supervisor) timeToCompletion(ctx context.Context, job *common.JobRecord) int64 {
	if job.Directory == "" || job.JobID == "" {
		return common.MaxExpCompletion
	}

	now, ok := s.gw.CurrentTime(ctx, s.remoteName)
	if !ok {
		return common.MaxExpCompletion
	}

	lines := s.gw.TailLog(ctx, s.remoteName, job.JobID, job.Directory, 1)
	if len(lines) == 0 {
		return common.MaxExpCompletion
	}

	projected, ok := parseProjectedCompletion(lines[len(lines)-1])
	if !ok {
		return common.MaxExpCompletion
	}

	return int64(projected.Sub(now).Seconds())
}

// maybeScheduleResubmit enqueues an auto-resubmit task for job, unless
// one is already in flight for it (resubmits for the same job must not
// overlap).
func (s *Supervisor) maybeScheduleResubmit(ctx context.Context, sp specialist.Specialist, job *common.JobRecord) {
	s.inFlightMu.Lock()
	if s.inFlight[job.Name] {
		s.inFlightMu.Unlock()
		return
	}
	s.inFlight[job.Name] = true
	s.inFlightMu.Unlock()

	delay := time.Duration(job.ExpCompletion)*time.Second + s.opts.GapTime
	req := request.NewGeneralRequest(func(taskCtx context.Context, _ ...any) (any, error) {
		s.autoResubmit(taskCtx, sp, job, delay)
		return nil, nil
	})

	pool := s.mgr.Pool()
	pool.Perform(ctx, req, func(worker.Result) {
		s.inFlightMu.Lock()
		delete(s.inFlight, job.Name)
		s.inFlightMu.Unlock()
	})
}
