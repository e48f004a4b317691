// Package request declares the Request objects the Worker Pool executes.
// Every Request is a declarative {action, args} pair: Action returns a
// callable bound to a Gateway, Args returns its positional arguments. Every
// Request additionally carries an opaque request ID (a uuid) used purely
// to correlate worker-pool log lines for one unit of work.
package request

import (
	"context"

	"github.com/google/uuid"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/gateway"
)

// ActionFunc is the callable a Request yields. It is invoked by the
// Worker Pool as action(ctx, args...).
type ActionFunc func(ctx context.Context, args ...any) (any, error)

// Request is the interface the Worker Pool consumes.
type Request interface {
	ID() string
	Action() ActionFunc
	Args() []any
}

// GeneralRequest wraps an arbitrary callback for non-network work.
type GeneralRequest struct {
	id   string
	fn   ActionFunc
	args []any
}

// NewGeneralRequest builds a GeneralRequest around fn and args.
func NewGeneralRequest(fn ActionFunc, args ...any) *GeneralRequest {
	return &GeneralRequest{id: uuid.NewString(), fn: fn, args: args}
}

func (r *GeneralRequest) ID() string       { return r.id }
func (r *GeneralRequest) Action() ActionFunc { return r.fn }
func (r *GeneralRequest) Args() []any       { return r.args }

// networkRequest is the shared base for every Gateway-bound request: it
// always prefixes remoteName as its first argument, per spec.md §4.3.
type networkRequest struct {
	id   string
	gw   *gateway.Gateway
	args []any
}

func newNetworkRequest(gw *gateway.Gateway, remoteName string, rest ...any) networkRequest {
	return networkRequest{
		id:   uuid.NewString(),
		gw:   gw,
		args: append([]any{remoteName}, rest...),
	}
}

func (r networkRequest) ID() string { return r.id }
func (r networkRequest) Args() []any { return r.args }

// JobStatsRequest queries job status for one job via the Gateway.
type JobStatsRequest struct{ networkRequest }

func NewJobStatsRequest(gw *gateway.Gateway, remoteName, user, jobName string) *JobStatsRequest {
	return &JobStatsRequest{newNetworkRequest(gw, remoteName, user, jobName)}
}

func (r *JobStatsRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, user, jobName := args[0].(string), args[1].(string), args[2].(string)
		stat, ok := r.gw.JobStats(ctx, remoteName, user, jobName)
		return JobStatsResult{stat, ok}, nil
	}
}

// JobStatsResult is the result type returned by JobStatsRequest's Action.
type JobStatsResult struct {
	Stat  common.JobStat
	Found bool
}

// CopyAndSubmitRequest copies a batch file to remote and submits it.
type CopyAndSubmitRequest struct{ networkRequest }

func NewCopyAndSubmitRequest(gw *gateway.Gateway, remoteName, folder, file string) *CopyAndSubmitRequest {
	return &CopyAndSubmitRequest{newNetworkRequest(gw, remoteName, folder, file)}
}

func (r *CopyAndSubmitRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, folder, file := args[0].(string), args[1].(string), args[2].(string)
		return r.gw.Submit(ctx, remoteName, folder, file), nil
	}
}

// CancelJobRequest cancels a job by id.
type CancelJobRequest struct{ networkRequest }

func NewCancelJobRequest(gw *gateway.Gateway, remoteName, jobID string) *CancelJobRequest {
	return &CancelJobRequest{newNetworkRequest(gw, remoteName, jobID)}
}

func (r *CancelJobRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, jobID := args[0].(string), args[1].(string)
		r.gw.Cancel(ctx, remoteName, jobID)
		return nil, nil
	}
}

// LogRequest fetches the trailing n lines of a job's remote log.
type LogRequest struct{ networkRequest }

func NewLogRequest(gw *gateway.Gateway, remoteName, jobID, workDir string, n int) *LogRequest {
	if n <= 0 {
		n = 1
	}
	return &LogRequest{newNetworkRequest(gw, remoteName, jobID, workDir, n)}
}

func (r *LogRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, jobID, workDir, n := args[0].(string), args[1].(string), args[2].(string), args[3].(int)
		return r.gw.TailLog(ctx, remoteName, jobID, workDir, n), nil
	}
}

// RemoteCommandRequest runs an arbitrary command on remote.
type RemoteCommandRequest struct{ networkRequest }

func NewRemoteCommandRequest(gw *gateway.Gateway, remoteName string, cmd []string) *RemoteCommandRequest {
	return &RemoteCommandRequest{newNetworkRequest(gw, remoteName, cmd)}
}

func (r *RemoteCommandRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, cmd := args[0].(string), args[1].([]string)
		ok, out := r.gw.RunOnRemote(ctx, remoteName, cmd)
		return RemoteCommandResult{ok, out}, nil
	}
}

type RemoteCommandResult struct {
	OK     bool
	Output string
}

// RequestRemoteRequest registers a new Remote Adapter with the Gateway.
type RequestRemoteRequest struct{ networkRequest }

func NewRequestRemoteRequest(gw *gateway.Gateway, remoteName, batchType string, shared bool) *RequestRemoteRequest {
	return &RequestRemoteRequest{newNetworkRequest(gw, remoteName, batchType, shared)}
}

func (r *RequestRemoteRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		remoteName, batchType, shared := args[0].(string), args[1].(string), args[2].(bool)
		return r.gw.RequestRemote(ctx, remoteName, batchType, shared), nil
	}
}

// ResetNetworkRequest clears the Gateway's cache and adapter set.
type ResetNetworkRequest struct {
	id string
	gw *gateway.Gateway
}

func NewResetNetworkRequest(gw *gateway.Gateway) *ResetNetworkRequest {
	return &ResetNetworkRequest{id: uuid.NewString(), gw: gw}
}

func (r *ResetNetworkRequest) ID() string   { return r.id }
func (r *ResetNetworkRequest) Args() []any  { return nil }
func (r *ResetNetworkRequest) Action() ActionFunc {
	return func(ctx context.Context, args ...any) (any, error) {
		r.gw.Reset()
		return nil, nil
	}
}
