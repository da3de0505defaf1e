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

package lattice

import (
	"errors"
	"fmt"
)

// Operations a render can fail in.
const (
	OpPipe     = "pipe"
	OpStart    = "start"
	OpWrite    = "write"
	OpRead     = "read"
	OpWait     = "wait"
	OpTimeout  = "timeout"
	OpCanceled = "canceled"
	OpExit     = "exit"
)

var ErrOutputTooLarge = errors.New("renderer output exceeds the configured limit")

// RenderError is returned for every failed render. Op names the step that
// failed.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("lattice render failed during %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrInvalidOptions reports renderer options that cannot be used.
type ErrInvalidOptions struct {
	Message string
}

func (e ErrInvalidOptions) Error() string {
	return fmt.Sprintf("invalid renderer options: %s", e.Message)
}
