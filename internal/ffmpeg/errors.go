package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/wasilibs/go-re2"
)

// stderrTailLines is how much ffmpeg stderr an ExecError keeps.
const stderrTailLines = 12

// ExecError is a failed ffmpeg run.
type ExecError struct {
	Args   []string
	Stderr string // Last lines of stderr.
	Err    error
}

func (e *ExecError) Error() string {
	msg := lastLine(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("ffmpeg: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg: %v: %s", e.Err, msg)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Pre-compiled patterns for classifying ffmpeg stderr. Transient failures
// are resource or lock contention that a later attempt can get past;
// anything else (bad input, missing encoder, invalid graph) is permanent.
var (
	reTransient = re2.MustCompile(
		`(?i)Resource temporarily unavailable|` +
			`Device or resource busy|` +
			`Text file busy|` +
			`Cannot allocate memory|` +
			`Too many open files|` +
			`Interrupted system call|` +
			`Stale file handle|` +
			`The process cannot access the file because it is being used`)

	rePermanent = re2.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`No such file or directory|` +
			`Unknown encoder|` +
			`No such filter|` +
			`Error initializing complex filters|` +
			`Permission denied|` +
			`No space left on device`)

	reFadeMissing = re2.MustCompile(`(?i)No such filter: 'fade'`)
)

// MatchTransient reports whether stderr shows a transient failure.
func MatchTransient(stderr string) bool {
	return reTransient.MatchString(stderr) && !rePermanent.MatchString(stderr)
}

// MatchFadeMissing reports whether stderr shows the fade filter is absent.
func MatchFadeMissing(stderr string) bool {
	return reFadeMissing.MatchString(stderr)
}

// IsTransient reports whether err is worth retrying: an *ExecError whose
// stderr matches a transient pattern, or an errno for a busy or briefly
// unavailable resource anywhere in the chain.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY) {
		return true
	}
	var ee *ExecError
	if errors.As(err, &ee) {
		return MatchTransient(ee.Stderr)
	}
	return false
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

func lastLine(s string) string {
	t := tail(s, 1)
	return strings.TrimSpace(t)
}
