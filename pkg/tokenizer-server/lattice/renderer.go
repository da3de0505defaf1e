/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package lattice renders analyzer lattice graphs to SVG with an external
// graph layout process.
package lattice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultMaxOutputBytes = 8 << 20

	stderrLimit = 4096
)

var DefaultCommand = []string{"dot", "-Tsvg"}

// Renderer turns a graph description into an SVG document.
type Renderer interface {
	Render(ctx context.Context, graph string) (string, error)
}

type Options struct {
	// Command is the argv of the renderer process. The graph is written to
	// its stdin and the SVG is read from its stdout.
	Command        []string
	Timeout        time.Duration
	MaxOutputBytes int64
	// StrictExitCode rejects the output of a process that exits non-zero.
	StrictExitCode bool
}

// ProcessRenderer starts one renderer process per call.
type ProcessRenderer struct {
	exec           utilexec.Interface
	command        []string
	timeout        time.Duration
	maxOutputBytes int64
	strictExitCode bool
}

func NewProcessRenderer(execer utilexec.Interface, opts Options) (*ProcessRenderer, error) {
	if execer == nil {
		execer = utilexec.New()
	}
	command := opts.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	if command[0] == "" {
		return nil, ErrInvalidOptions{Message: "renderer executable is empty"}
	}
	if opts.Timeout < 0 || opts.MaxOutputBytes < 0 {
		return nil, ErrInvalidOptions{Message: "timeout and maxOutputBytes must not be negative"}
	}
	r := &ProcessRenderer{
		exec:           execer,
		command:        append([]string(nil), command...),
		timeout:        opts.Timeout,
		maxOutputBytes: opts.MaxOutputBytes,
		strictExitCode: opts.StrictExitCode,
	}
	if r.timeout == 0 {
		r.timeout = DefaultTimeout
	}
	if r.maxOutputBytes == 0 {
		r.maxOutputBytes = DefaultMaxOutputBytes
	}
	return r, nil
}

func (r *ProcessRenderer) Render(parent context.Context, graph string) (svg string, err error) {
	start := time.Now()
	cmdline := strings.Join(r.command, " ")
	defer func() {
		metrics.ObserveRender(start, err)
		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			metrics.RenderFailures.WithLabelValues(renderErr.Op).Inc()
			klog.Errorf("Failed to render lattice with %q: %v", cmdline, err)
		}
	}()

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return "", &RenderError{Op: OpPipe, Err: err}
	}
	defer stdinW.Close()
	defer stdinR.Close()

	// stderr is a file so that os/exec starts no copy goroutine that Wait
	// would block on while a grandchild holds the write end.
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		return "", &RenderError{Op: OpPipe, Err: err}
	}
	defer stderrW.Close()
	defer stderrR.Close()

	cmd := r.exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.SetStdin(stdinR)
	cmd.SetStderr(stderrW)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", &RenderError{Op: OpPipe, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return "", &RenderError{Op: OpStart, Err: err}
	}
	// The child holds its own copies of these ends.
	stdinR.Close()
	stderrW.Close()

	waited := false
	defer func() {
		if !waited {
			cancel()
			_ = cmd.Wait()
		}
	}()
	// Unblock the pipe goroutines once the context is done, even when a
	// grandchild keeps the pipes open.
	stop := context.AfterFunc(ctx, func() {
		stdout.Close()
		stdinW.Close()
		stderrR.Close()
	})
	defer stop()

	var out []byte
	stderr := &cappedBuffer{limit: stderrLimit}
	g := new(errgroup.Group)
	g.Go(func() error {
		// Read errors only mean the pipe was closed early.
		_, _ = io.Copy(stderr, stderrR)
		return nil
	})
	g.Go(func() error {
		defer stdinW.Close()
		if _, err := io.WriteString(stdinW, graph); err != nil {
			cancel()
			return &RenderError{Op: OpWrite, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		data, err := io.ReadAll(io.LimitReader(stdout, r.maxOutputBytes+1))
		if err != nil {
			cancel()
			return &RenderError{Op: OpRead, Err: err}
		}
		if int64(len(data)) > r.maxOutputBytes {
			cancel()
			return &RenderError{Op: OpRead, Err: ErrOutputTooLarge}
		}
		out = data
		return nil
	})
	ioErr := g.Wait()

	waitErr := cmd.Wait()
	waited = true

	if parent.Err() != nil {
		return "", &RenderError{Op: OpCanceled, Err: parent.Err()}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &RenderError{Op: OpTimeout, Err: fmt.Errorf("renderer did not finish within %s", r.timeout)}
	}
	if ioErr != nil {
		return "", ioErr
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr utilexec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return "", &RenderError{Op: OpWait, Err: waitErr}
		}
		exitCode = exitErr.ExitStatus()
	}
	klog.V(4).Infof("Renderer %q exited with code %d after %s", cmdline, exitCode, time.Since(start))
	if exitCode != 0 {
		klog.Warningf("Renderer %q exited with code %d: %s", cmdline, exitCode, stderr.String())
		if r.strictExitCode {
			return "", &RenderError{Op: OpExit, Err: fmt.Errorf("exit status %d", exitCode)}
		}
	}
	return string(out), nil
}

// cappedBuffer keeps the first limit bytes written to it and drops the rest.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
