package remote

import (
	"context"
	"os/exec"
)

// defaultExec is the production ExecFunc: it shells out to the named
// binary (ssh/scp, both expected on PATH) and returns its combined output.
func defaultExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
