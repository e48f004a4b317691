package request

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/gateway"
)

func TestNetworkRequestPrefixesRemoteNameInArgs(t *testing.T) {
	a := assert.New(t)

	gw := gateway.New(nil)
	req := NewCancelJobRequest(gw, "cluster1", "12345")

	a.Equal([]any{"cluster1", "12345"}, req.Args())
	a.NotEmpty(req.ID())
}

func TestJobStatsRequestReturnsTypedResult(t *testing.T) {
	a := assert.New(t)

	gw := gateway.New(nil)
	req := NewJobStatsRequest(gw, "missing-remote", "alice", "md01")

	value, err := req.Action()(context.Background(), req.Args()...)

	a.NoError(err)
	result, ok := value.(JobStatsResult)
	a.True(ok)
	a.False(result.Found)
	a.Equal(common.JobStat{}, result.Stat)
}

func TestResetNetworkRequestHasNoArgs(t *testing.T) {
	a := assert.New(t)

	gw := gateway.New(nil)
	req := NewResetNetworkRequest(gw)

	a.Nil(req.Args())
	a.NotEmpty(req.ID())

	_, err := req.Action()(context.Background())
	a.NoError(err)
}

func TestGeneralRequestInvokesBoundFunction(t *testing.T) {
	a := assert.New(t)

	called := false
	req := NewGeneralRequest(func(ctx context.Context, args ...any) (any, error) {
		called = true
		return nil, nil
	})

	_, err := req.Action()(context.Background(), req.Args()...)

	a.NoError(err)
	a.True(called)
}
