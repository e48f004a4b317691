// Package batchscript generates SLURM-style batch scripts from a
// JobRecord: a header section common to every job type, then a
// type-specific environment and binary section (spec.md §4.5).
package batchscript

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/AmzelLab/fiesta3/internal/common"
)

// ErrGPUMismatch is returned when a gpu-partition job's GPU/proc counts
// violate the invariant numGPUs <= numProcs && numProcs % numGPUs == 0.
var ErrGPUMismatch = errors.New("numOfGPUs must divide numOfProcs and be <= numOfProcs")

// Header renders the #!/bin/bash -l header shared by every batch-script
// variant: job-name/time/node/task/partition directives, the optional
// --gres=gpu directive, and the --exclude directive when an exclusion
// list is configured (lazily loaded from disk if not yet populated in
// memory).
func Header(job *common.JobRecord) (string, error) {
	var b strings.Builder
	b.WriteString("#!/bin/bash -l\n")
	b.WriteString("#SBATCH\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", job.Name)
	fmt.Fprintf(&b, "#SBATCH --time=%s\n", job.TimeLimit)
	fmt.Fprintf(&b, "#SBATCH -N %d\n", job.NumNodes)
	fmt.Fprintf(&b, "#SBATCH --ntasks-per-node=%d\n", job.NumProcs)
	fmt.Fprintf(&b, "#SBATCH --cpus-per-task=%d\n", job.NumThrs)
	b.WriteString("#SBATCH --exclusive\n")
	fmt.Fprintf(&b, "#SBATCH --partition=%s\n", job.Partition)

	if job.Partition == "gpu" {
		if job.NumGPUs <= 0 || job.NumGPUs > job.NumProcs || job.NumProcs%job.NumGPUs != 0 {
			return "", errors.Wrapf(ErrGPUMismatch, "job %s: numOfGPUs=%d numOfProcs=%d", job.Name, job.NumGPUs, job.NumProcs)
		}
		fmt.Fprintf(&b, "#SBATCH --gres=gpu:%d\n", job.NumGPUs)
	}

	if len(job.ExclusionList) == 0 && job.ExclusionPath != "" {
		if err := LoadExclusionList(job); err != nil {
			return "", err
		}
	}
	if len(job.ExclusionList) > 0 {
		fmt.Fprintf(&b, "#SBATCH --exclude=%s\n", strings.Join(job.ExclusionList, ","))
	}

	b.WriteString("#\n\n")
	return b.String(), nil
}

// LoadExclusionList eagerly reads job.ExclusionPath into job.ExclusionList.
func LoadExclusionList(job *common.JobRecord) error {
	f, err := os.Open(job.ExclusionPath)
	if err != nil {
		return errors.Wrapf(err, "loading exclusion list for job %s", job.Name)
	}
	defer f.Close()

	job.ExclusionList = job.ExclusionList[:0]
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			job.ExclusionList = append(job.ExclusionList, line)
		}
	}
	return errors.Wrap(scanner.Err(), "reading exclusion list")
}

// PersistExclusionList writes job.ExclusionList to job.ExclusionPath, one
// node per line, deduplicated and sorted. Writing is idempotent: calling
// it twice after identical mutations produces identical file content.
func PersistExclusionList(job *common.JobRecord) error {
	if job.ExclusionPath == "" {
		return nil
	}
	f, err := os.Create(job.ExclusionPath)
	if err != nil {
		return errors.Wrapf(err, "persisting exclusion list for job %s", job.Name)
	}
	defer f.Close()

	nodes := append([]string(nil), job.ExclusionList...)
	sort.Strings(nodes)
	w := bufio.NewWriter(f)
	for i, node := range nodes {
		if i > 0 && node == nodes[i-1] {
			continue
		}
		fmt.Fprintln(w, node)
	}
	return errors.Wrap(w.Flush(), "flushing exclusion list")
}

// AddExclusionNode appends node to job's exclusion list (deduplicated,
// sorted, lazily-initialized path) and flushes the result to disk.
func AddExclusionNode(job *common.JobRecord, node string) error {
	job.AddExclusionNode(node)
	return PersistExclusionList(job)
}
