// Package blk hands the embedded results block of a replay to the external
// wt_ext_cli decoder and returns the decoded tree.
package blk

import (
	"WrplSpectra/internal/core/tree"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrServiceUnavailable means the decoder binary cannot be run at all.
	// It aborts the whole run.
	ErrServiceUnavailable = errors.New("decoding service unavailable")

	// The errors below are soft: Unpack still returns an empty tree.
	ErrInvalidOffset          = errors.New("invalid results offset")
	ErrServiceTimeout         = errors.New("decoding service timed out")
	ErrServiceFailed          = errors.New("decoding service failed")
	ErrServiceOutputMalformed = errors.New("decoding service output malformed")
)

// waitDelay bounds how long Wait blocks on pipes after the process is killed.
const waitDelay = 500 * time.Millisecond

var unpackArgs = []string{"unpack_raw_blk", "--stdin", "--stdout", "--format", "Json"}

// Unpacker runs wt_ext_cli once per results block.
type Unpacker struct {
	path    string
	timeout time.Duration
	verbose bool
}

// NewUnpacker resolves and checks the decoder binary. Any problem with the
// binary is reported as ErrServiceUnavailable.
func NewUnpacker(path string, timeout time.Duration, verbose bool) (*Unpacker, error) {
	resolved, err := ResolveBinary(path)
	if err != nil {
		return nil, err
	}
	return &Unpacker{path: resolved, timeout: timeout, verbose: verbose}, nil
}

// ResolveBinary makes path absolute and checks that it names an executable
// regular file.
func ResolveBinary(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve %s: %v", ErrServiceUnavailable, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: wt_ext_cli not found at %s", ErrServiceUnavailable, abs)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: wt_ext_cli path is not a file: %s", ErrServiceUnavailable, abs)
	}
	if info.Mode().Perm()&0111 == 0 {
		return "", fmt.Errorf("%w: wt_ext_cli is not executable: %s (try: chmod +x %s)", ErrServiceUnavailable, abs, abs)
	}
	return abs, nil
}

// Path returns the resolved decoder path.
func (u *Unpacker) Path() string {
	return u.path
}

// IsFatal reports whether err must abort the run rather than degrade the
// current file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// Unpack decodes data[rezOffset:]. The returned tree is never nil: on any
// soft failure it is empty and the error says why.
func (u *Unpacker) Unpack(ctx context.Context, data []byte, rezOffset uint32) (tree.Value, error) {
	if rezOffset == 0 || uint64(rezOffset) >= uint64(len(data)) {
		return tree.Empty(), fmt.Errorf("%w: %d (file size %d)", ErrInvalidOffset, rezOffset, len(data))
	}

	out, err := u.run(ctx, data[rezOffset:])
	if err != nil {
		return tree.Empty(), err
	}

	v, err := tree.Parse(out)
	if err != nil {
		return tree.Empty(), fmt.Errorf("%w: %v", ErrServiceOutputMalformed, err)
	}
	return v, nil
}

// run executes the decoder with input on stdin. CommandContext kills the
// process on timeout or cancellation and WaitDelay closes the pipes if a
// child keeps them open, so every path returns with the process reaped.
func (u *Unpacker) run(ctx context.Context, input []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, u.path, unpackArgs...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if u.verbose {
		log.Printf("debug: running %s with %d bytes of input", u.path, len(input))
	}

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrServiceTimeout, u.timeout)
		}
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if u.verbose {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				log.Printf("debug: wt_ext_cli stderr: %s", msg)
			}
		}
		return nil, fmt.Errorf("%w: exit code %d", ErrServiceFailed, exitErr.ExitCode())
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrServiceFailed, err)
}
