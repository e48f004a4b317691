// Package remote implements the transport-neutral Remote Adapter contract:
// one adapter per cluster, responsible for command-prefix construction,
// timed command execution, and parsing of scheduler output into typed
// records. The SSH/SCP transport itself is an external dependency — the
// adapter only builds argv slices and hands them to an injectable exec
// function, never linking an SSH protocol implementation.
package remote

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AmzelLab/fiesta3/internal/common"
)

// DefaultTimeout is the wall-clock budget for any single remote command.
const DefaultTimeout = 60 * time.Second

// remoteDateLayout matches the cluster's `date` output, e.g.
// "Mon Jan  2 15:04:05 EST 2024".
const remoteDateLayout = "Mon Jan _2 15:04:05 MST 2006"

// Adapter is the contract every batch-system-specific remote proxy
// implements. Every method is two-valued (ok, value) or returns a safe
// zero value; the adapter never returns a Go error to its callers.
type Adapter interface {
	BatchSystem() string
	RunCommand(ctx context.Context, cmd []string) (ok bool, output string)
	JobStatus(ctx context.Context, user string) []common.JobStat
	CurrentTime(ctx context.Context) (t time.Time, ok bool)
	TailLog(ctx context.Context, jobID, workDir string, n int) []string
	CopyAndSubmit(ctx context.Context, localFile, remoteDir string) string
	CancelJob(ctx context.Context, jobID string)
}

// ExecFunc runs name with args and returns its combined stdout+stderr.
// Swappable so tests never touch a real shell.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config configures a single Adapter instance.
type Config struct {
	ServerName string
	Shared     bool // when true, permit SSH ControlMaster connection sharing
	Timeout    time.Duration
	Exec       ExecFunc // nil uses the real os/exec-backed implementation
}

// New constructs an Adapter for the named batch system. "slurm" is the
// only batch system implemented; unknown names return a nil adapter so
// the Gateway can log and decline registration.
func New(batchSystem string, cfg Config, logger common.Logger) Adapter {
	if logger == nil {
		logger = common.NopLogger()
	}
	switch batchSystem {
	case "slurm":
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		exec := cfg.Exec
		if exec == nil {
			exec = defaultExec
		}
		return &slurmAdapter{
			serverName: cfg.ServerName,
			shared:     cfg.Shared,
			timeout:    timeout,
			exec:       exec,
			logger:     logger,
		}
	default:
		logger.Log(common.LogError, "unknown batch system %q: no adapter available", batchSystem)
		return nil
	}
}

type slurmAdapter struct {
	serverName string
	shared     bool
	timeout    time.Duration
	exec       ExecFunc
	logger     common.Logger
}

func (a *slurmAdapter) BatchSystem() string { return "slurm" }

// commandPrefix builds the ssh/scp prefix tokens. copy selects scp vs ssh.
// ControlMaster=no is appended only when the adapter is configured NOT to
// share connections (spec authority; the reference Python inverted this).
// For non-copy commands the server name is appended to the prefix; for
// copy commands the destination argument itself carries the server name.
func (a *slurmAdapter) commandPrefix(copy bool) []string {
	var prefix []string
	if copy {
		prefix = []string{"scp"}
	} else {
		prefix = []string{"ssh"}
	}
	if !a.shared {
		prefix = append(prefix, "-o", "ControlMaster=no")
	}
	if !copy {
		prefix = append(prefix, a.serverName)
	}
	return prefix
}

func (a *slurmAdapter) RunCommand(ctx context.Context, cmd []string) (bool, string) {
	return a.runCommand(ctx, append(a.commandPrefix(false), cmd...))
}

func (a *slurmAdapter) runCommand(ctx context.Context, args []string) (bool, string) {
	if len(args) == 0 {
		return false, ""
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.exec(cctx, args[0], args[1:]...)
	if cctx.Err() == context.DeadlineExceeded {
		a.logger.Log(common.LogInfo, "remote command timeout: %s", strings.Join(args, " "))
		return false, ""
	}
	if err != nil {
		a.logger.Log(common.LogError, "remote command failed [%s]: %v", strings.Join(args, " "), err)
		return false, ""
	}
	return true, strings.TrimRight(string(out), "\n")
}

func (a *slurmAdapter) JobStatus(ctx context.Context, user string) []common.JobStat {
	a.logger.Log(common.LogInfo, "querying job status on remote")
	cmd := append(a.commandPrefix(false), "squeue", "-u", user)
	ok, out := a.runCommand(ctx, cmd)
	if !ok {
		a.logger.Log(common.LogError, "failed to query job status")
		return nil
	}

	lines := strings.Split(out, "\n")
	if len(lines) <= 1 {
		return nil
	}

	var stats []common.JobStat
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) <= 7 {
			continue
		}
		stats = append(stats, common.JobStat{
			ID:      fields[0],
			Name:    fields[2],
			State:   fields[4],
			Machine: fields[7],
		})
	}
	return stats
}

func (a *slurmAdapter) CurrentTime(ctx context.Context) (time.Time, bool) {
	cmd := append(a.commandPrefix(false), "date")
	ok, out := a.runCommand(ctx, cmd)
	if !ok {
		a.logger.Log(common.LogError, "failed to query remote current time")
		return time.Time{}, false
	}
	t, err := time.Parse(remoteDateLayout, out)
	if err != nil {
		a.logger.Log(common.LogError, "failed to parse remote current time %q: %v", out, err)
		return time.Time{}, false
	}
	return t, true
}

func (a *slurmAdapter) TailLog(ctx context.Context, jobID, workDir string, n int) []string {
	a.logger.Log(common.LogInfo, "querying log tail on remote")
	file := fmt.Sprintf("%s/slurm-%s.out", workDir, jobID)
	cmd := append(a.commandPrefix(false), "tail", "-n", strconv.Itoa(n), file)
	ok, out := a.runCommand(ctx, cmd)
	if !ok {
		a.logger.Log(common.LogError, "failed to query log tail")
		return nil
	}
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func (a *slurmAdapter) CopyAndSubmit(ctx context.Context, localFile, remoteDir string) string {
	a.logger.Log(common.LogInfo, "copy and submit [%s] to remote", localFile)

	dest := fmt.Sprintf("%s:%s", a.serverName, remoteDir)
	cpCmd := append(a.commandPrefix(true), localFile, dest)
	if ok, _ := a.runCommand(ctx, cpCmd); !ok {
		a.logger.Log(common.LogError, "copy to remote failed [%s]", localFile)
		return ""
	}

	submitCmd := append(a.commandPrefix(false), "cd", remoteDir, "&&", "sbatch", filepath.Base(localFile))
	ok, out := a.runCommand(ctx, submitCmd)
	if !ok {
		a.logger.Log(common.LogError, "submit to remote failed [%s]", localFile)
		return ""
	}
	return out
}

func (a *slurmAdapter) CancelJob(ctx context.Context, jobID string) {
	cmd := append(a.commandPrefix(false), "scancel", jobID)
	if ok, _ := a.runCommand(ctx, cmd); !ok {
		a.logger.Log(common.LogError, "cancelling job [%s] failed", jobID)
	}
}
