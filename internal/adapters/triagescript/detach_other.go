//go:build !unix

package triagescript

import "os/exec"

func detach(cmd *exec.Cmd) {}
