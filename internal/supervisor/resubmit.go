package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AmzelLab/fiesta3/internal/batchscript"
	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/specialist"
)

// submittedJobIDPrefix is the scheduler's canned acknowledgement for a
// successful sbatch: "Submitted batch job <id>".
const submittedJobIDPrefix = "Submitted batch job"

// autoResubmit waits delay (the remaining projected runtime plus the
// configured gap), renders a fresh batch script (the next section in
// normal mode, the current section from its checkpoint in makeup mode),
// submits it, and advances job's state on success. Failures are logged
// only: the next poll cycle will see the job still pending and retry.
func (s *Supervisor) autoResubmit(ctx context.Context, sp specialist.Specialist, job *common.JobRecord, delay time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	s.logger.Log(common.LogInfo, "auto-resubmitting job [%s] (makeup=%v)", job.Name, job.Makeup)

	script, err := (&batchscript.Gromacs{Job: job, Makeup: job.Makeup}).Render()
	if err != nil {
		s.logger.Log(common.LogError, "failed to render batch script for [%s]: %v", job.Name, err)
		return
	}

	localFile := filepath.Join(os.TempDir(), job.Name+".sh")
	if err := os.WriteFile(localFile, []byte(script), 0o644); err != nil {
		s.logger.Log(common.LogError, "failed to write batch script for [%s]: %v", job.Name, err)
		return
	}

	reply := s.gw.Submit(ctx, s.remoteName, job.Directory, localFile)
	jobID, ok := parseSubmittedJobID(reply)
	if !ok {
		s.logger.Log(common.LogError, "resubmit of [%s] did not return a job id: %q", job.Name, reply)
		return
	}

	job.JobID = jobID
	if !job.Makeup {
		job.SectionNum++
	}
	job.Makeup = false
	job.ExpCompletion = common.MaxExpCompletion

	sp.SetJobStat(job.Name, common.JobStat{Name: job.Name, ID: jobID, State: "PD", Note: "P"})
	s.gw.SeedPending(job.Name, common.JobStat{Name: job.Name, ID: jobID, State: "PD"})

	s.logger.Log(common.LogInfo, "job [%s] resubmitted as [%s]", job.Name, jobID)

	if msg, err := s.mgr.Snapshot(s.opts.SnapshotPath); err != nil {
		s.logger.Log(common.LogError, "failed to snapshot after resubmitting [%s]: %v", job.Name, err)
	} else {
		s.logger.Log(common.LogInfo, msg)
	}
}

// parseSubmittedJobID extracts the job id from the scheduler's
// "Submitted batch job <id>" acknowledgement.
func parseSubmittedJobID(reply string) (string, bool) {
	fields := strings.Fields(reply)
	if len(fields) != 4 || fmt.Sprintf("%s %s %s", fields[0], fields[1], fields[2]) != submittedJobIDPrefix {
		return "", false
	}
	if _, err := strconv.Atoi(fields[3]); err != nil {
		return "", false
	}
	return fields[3], true
}
