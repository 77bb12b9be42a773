//go:build !windows

package cmd

import (
	"os"
	"os/exec"
	"syscall"
)

// setDaemonAttrs detaches the background noted server into its own
// session on Unix so it survives the launching terminal.
func setDaemonAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// shutdownSignals lists the signals that trigger a graceful server stop.
func shutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// sigTERM returns the termination signal for the platform.
func sigTERM() syscall.Signal { return syscall.SIGTERM }

// sigKILL returns the kill signal for the platform.
func sigKILL() syscall.Signal { return syscall.SIGKILL }
