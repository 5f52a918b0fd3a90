package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Runner executes one ffmpeg command. args[0] is the binary.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Executor runs ffmpeg as a child process and captures stderr for error
// classification.
type Executor struct {
	// Tee copies stderr to os.Stderr as it arrives (verbose mode).
	Tee bool
}

// Run starts args and waits for it. A non-zero exit is an *ExecError.
func (x Executor) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if x.Tee {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Run(); err != nil {
		return &ExecError{Args: args, Stderr: tail(stderrBuf.String(), stderrTailLines), Err: err}
	}
	return nil
}
