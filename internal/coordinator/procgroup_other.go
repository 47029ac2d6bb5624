//go:build !unix

package coordinator

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
