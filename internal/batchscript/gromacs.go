package batchscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AmzelLab/fiesta3/internal/common"
)

// Gromacs renders the environment and binary sections for a Gromacs job.
// In normal mode it prepares section n+1 from section n with grompp, then
// runs mdrun on the new section. In makeup mode (resuming a cancelled
// section from its checkpoint) grompp is skipped entirely and mdrun
// resumes the current section in place.
type Gromacs struct {
	Job    *common.JobRecord
	Makeup bool
}

// Render produces the complete batch-script contents: header, then the
// Gromacs environment and binary sections.
func (g *Gromacs) Render() (string, error) {
	header, err := Header(g.Job)
	if err != nil {
		return "", err
	}
	return header + g.environment() + g.binary(), nil
}

func (g *Gromacs) environment() string {
	var b strings.Builder
	b.WriteString("module load gcc\n")
	b.WriteString("module load intel-mpi\n")
	b.WriteString("module load cuda/7.5\n\n")
	fmt.Fprintf(&b, "source %s/GMXRC\n", g.Job.BinaryPath)
	fmt.Fprintf(&b, "export OMP_NUM_THREADS=%d\n", g.Job.NumThrs)
	fmt.Fprintf(&b, "cd %s\n", g.Job.Directory)
	return b.String()
}

func (g *Gromacs) currSectionName() string {
	return fmt.Sprintf("%s_%d", g.Job.NameBase, g.Job.SectionNum)
}

func (g *Gromacs) nextSectionName() string {
	return fmt.Sprintf("%s_%d", g.Job.NameBase, g.Job.SectionNum+1)
}

// gpuFlag concatenates, for each GPU index i from 0 up to numGPUs, the
// digit i repeated numProcs/numGPUs times: the -gpu_id mapping mdrun
// expects.
func gpuFlag(numGPUs, numProcs int) string {
	if numGPUs <= 0 {
		return ""
	}
	perGPU := numProcs / numGPUs
	var b strings.Builder
	for i := 0; i < numGPUs; i++ {
		b.WriteString(strings.Repeat(strconv.Itoa(i), perGPU))
	}
	return b.String()
}

func (g *Gromacs) grompp() string {
	curr, next := g.currSectionName(), g.nextSectionName()
	var b strings.Builder
	fmt.Fprintf(&b, "mdrun -np 1 gmx_mpi grompp -f %s -o %s.tpr -c %s.gro -p topol.top",
		g.Job.MDP, next, curr)

	if g.Job.Index != "" {
		fmt.Fprintf(&b, " -n %s.ndx", g.Job.Index)
	}
	if g.Job.Continuation {
		fmt.Fprintf(&b, " -t %s.cpt", curr)
	}
	b.WriteString("\n")
	return b.String()
}

func (g *Gromacs) mdrun() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mpirun -np %d gmx_mpi mdrun -ntomp %d -pin on -v", g.Job.NumProcs, g.Job.NumThrs)

	if g.Makeup {
		curr := g.currSectionName()
		fmt.Fprintf(&b, " -deffnm %s -cpi %s.cpt -append", curr, curr)
	} else {
		fmt.Fprintf(&b, " -deffnm %s", g.nextSectionName())
	}

	if g.Job.Partition == "gpu" {
		fmt.Fprintf(&b, " -dlb no -gpu_id %s", gpuFlag(g.Job.NumGPUs, g.Job.NumProcs))
	}
	b.WriteString("\n")
	return b.String()
}

func (g *Gromacs) binary() string {
	if g.Makeup {
		return g.mdrun()
	}
	return g.grompp() + g.mdrun()
}

// GPUFlag exposes the -gpu_id mapping for tests and other callers.
func GPUFlag(numGPUs, numProcs int) string { return gpuFlag(numGPUs, numProcs) }
