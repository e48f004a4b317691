package batchscript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmzelLab/fiesta3/internal/common"
)

func baseJob() *common.JobRecord {
	return &common.JobRecord{
		Name:       "md01",
		TimeLimit:  "24:00:00",
		NumNodes:   2,
		NumProcs:   4,
		NumThrs:    2,
		Partition:  "standard",
		NameBase:   "md",
		SectionNum: 3,
		MDP:        "prod",
		BinaryPath: "/opt/gromacs",
		Directory:  "/scratch/md01",
	}
}

func TestGPUFlag(t *testing.T) {
	a := assert.New(t)

	a.Equal("0011", GPUFlag(2, 4))
	a.Equal("0000", GPUFlag(1, 4))
	a.Equal("", GPUFlag(0, 4))
}

func TestHeaderRejectsMismatchedGPUCount(t *testing.T) {
	a := assert.New(t)

	job := baseJob()
	job.Partition = "gpu"
	job.NumGPUs = 3 // does not divide NumProcs == 4

	_, err := Header(job)
	a.ErrorIs(err, ErrGPUMismatch)
}

func TestHeaderAddsGPUAndExcludeDirectives(t *testing.T) {
	a := assert.New(t)
	require := require.New(t)

	job := baseJob()
	job.Partition = "gpu"
	job.NumGPUs = 2
	job.ExclusionList = []string{"node02", "node01"}

	out, err := Header(job)
	require.NoError(err)

	a.Contains(out, "#SBATCH --gres=gpu:2")
	a.Contains(out, "#SBATCH --exclude=node02,node01")
}

func TestGrompBuildsSpaceSeparatedFlags(t *testing.T) {
	a := assert.New(t)

	job := baseJob()
	job.Index = "index1"
	job.Continuation = true
	g := &Gromacs{Job: job}

	line := g.grompp()

	// The original implementation concatenated "-c md_3.gro-p topol.top"
	// with no separating space; this must never reappear.
	a.NotContains(line, ".gro-p")
	a.Contains(line, "-c md_3.gro -p topol.top")
	a.Contains(line, "-n index1.ndx")
	a.Contains(line, "-t md_3.cpt")
}

func TestBinaryMakeupModeSkipsGrompp(t *testing.T) {
	a := assert.New(t)

	job := baseJob()
	g := &Gromacs{Job: job, Makeup: true}

	out := g.binary()

	a.NotContains(out, "grompp")
	a.Contains(out, "-deffnm md_3 -cpi md_3.cpt -append")
}

func TestBinaryNormalModeRunsGromppThenMdrun(t *testing.T) {
	a := assert.New(t)

	job := baseJob()
	g := &Gromacs{Job: job, Makeup: false}

	out := g.binary()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	a.GreaterOrEqual(len(lines), 2)
	a.Contains(out, "grompp")
	a.Contains(out, "-deffnm md_4")
}

func TestGPUPartitionAppendsGPUIDFlag(t *testing.T) {
	a := assert.New(t)

	job := baseJob()
	job.Partition = "gpu"
	job.NumGPUs = 2
	g := &Gromacs{Job: job, Makeup: true}

	out := g.mdrun()

	a.Contains(out, "-dlb no -gpu_id 0011")
}
