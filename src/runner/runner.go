// Package runner defines the launch-command builder spec §1 names as an
// external collaborator out of scope for this module: once an instance is
// installed, something must build the java invocation and run it. That
// responsibility is kept here as an interface contract only.
//
// Grounded on teacher's src/launcher/launcher.go PrepareCMD/LaunchMinecraft,
// whose signatures are preserved as the contract; their classpath-building
// and argument-templating bodies are intentionally not carried over here,
// since implementing them would mean silently building the out-of-scope
// component instead of the boundary spec.md actually asks for.
package runner

import (
	"context"
	"os/exec"

	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/session"
)

// LaunchOptions carries the per-launch settings a Runner needs beyond the
// resolved instance and session: JVM path/heap sizing and any extra
// arguments to append after the game arguments.
type LaunchOptions struct {
	JavaPath string
	MaxRAM   string
	MinRAM   string
	Extra    []string
}

// Runner builds and starts the game process for an installed instance. The
// real implementation (classpath assembly, argument templating, process
// supervision) lives outside this module.
type Runner interface {
	// PrepareLaunch resolves the java executable and argument list that
	// would launch inst under sess, without starting anything.
	PrepareLaunch(ctx context.Context, inst *model.Instance, sess session.Session, opts LaunchOptions) (javaPath string, args []string, err error)

	// Launch starts the game process, wiring its stdio to the caller's.
	Launch(ctx context.Context, inst *model.Instance, sess session.Session, opts LaunchOptions) (*exec.Cmd, error)
}
