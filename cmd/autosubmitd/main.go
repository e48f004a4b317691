// Command autosubmitd wires the Gateway, Job Manager and Supervisor
// together and runs the AutoSubmitter control loop until interrupted.
// Flag parsing only uses the standard library: the command surface is
// intentionally small and CLI ergonomics are out of scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AmzelLab/fiesta3/internal/common"
	"github.com/AmzelLab/fiesta3/internal/gateway"
	"github.com/AmzelLab/fiesta3/internal/manager"
	"github.com/AmzelLab/fiesta3/internal/remote"
	"github.com/AmzelLab/fiesta3/internal/supervisor"
)

func main() {
	var (
		envelopePath = flag.String("envelope", "", "path to the job envelope JSON file to submit on startup")
		remoteName   = flag.String("remote", "", "name of the remote cluster to manage (required)")
		serverName   = flag.String("server", "", "ssh-reachable hostname for the remote cluster (required)")
		batchSystem  = flag.String("batch-system", "slurm", "remote batch system")
		user         = flag.String("user", "", "remote username to poll job status for (required)")
		shared       = flag.Bool("shared-connection", false, "allow SSH ControlMaster connection sharing")
		workers      = flag.Int("workers", 0, "worker pool size (0 uses the default)")
		checkEvery   = flag.Duration("check-every", 30*time.Minute, "how often to poll remote job status")
		gapTime      = flag.Duration("gap-time", 30*time.Second, "extra delay added after a job's projected completion before resubmitting")
		snapshotPath = flag.String("snapshot", "jobs_current.json", "path to write the job-table snapshot to after each resubmission")
		logLevel     = flag.String("log-level", "info", "debug|info|error")
	)
	flag.Parse()

	if *remoteName == "" || *serverName == "" || *user == "" {
		fmt.Fprintln(os.Stderr, "autosubmitd: -remote, -server and -user are required")
		flag.Usage()
		os.Exit(2)
	}

	logger := common.NewLogger("autosubmitd", parseLogLevel(*logLevel), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := gateway.New(logger)
	adapter := remote.New(*batchSystem, remote.Config{ServerName: *serverName, Shared: *shared}, logger)
	if adapter == nil {
		os.Exit(1)
	}
	if ok, _ := adapter.RunCommand(ctx, []string{"ls"}); !ok {
		logger.Log(common.LogError, "could not reach remote [%s], exiting", *remoteName)
		os.Exit(1)
	}
	gw.Register(*remoteName, adapter)

	mgr := manager.New(logger)
	mgr.TakeOffice(*workers)

	if *envelopePath != "" {
		envelope, err := os.ReadFile(*envelopePath)
		if err != nil {
			logger.Log(common.LogError, "failed to read envelope %s: %v", *envelopePath, err)
			os.Exit(1)
		}
		fmt.Print(mgr.AddJobs(envelope))
	}

	sup := supervisor.New(gw, mgr, *remoteName, *user, supervisor.Options{
		CheckEvery:   *checkEvery,
		GapTime:      *gapTime,
		SnapshotPath: *snapshotPath,
	}, logger)

	sup.Run(ctx)
	mgr.Pool().Close()
}

func parseLogLevel(s string) common.LogLevel {
	switch s {
	case "debug":
		return common.LogDebug
	case "error":
		return common.LogError
	default:
		return common.LogInfo
	}
}
