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

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/normalizer"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/response"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

// State is a step of handling one tokenize request.
type State int

const (
	Received State = iota
	Normalized
	Tokenized
	Assembled
	DiagnosticRendering
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "Received"
	case Normalized:
		return "Normalized"
	case Tokenized:
		return "Tokenized"
	case Assembled:
		return "Assembled"
	case DiagnosticRendering:
		return "DiagnosticRendering"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RequestError moves a request to Failed. State is the last state the
// request reached before the failure.
type RequestError struct {
	State State
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed after %s: %v", e.State, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Error types reported in metrics and access logs.
const (
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeDecoding     = "decoding"
	ErrorTypeTokenization = "tokenization"
	ErrorTypeInvariant    = "invariant"
	ErrorTypeInternal     = "internal"
)

// classify maps a request failure to its HTTP status and error type.
func classify(err error) (int, string) {
	var (
		badRequest  ErrBadRequest
		decodingErr *normalizer.DecodingError
		tokenErr    tokenization.ErrTokenizationFailed
		invariant   *response.InvariantError
	)
	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, ErrorTypeBadRequest
	case errors.As(err, &decodingErr):
		return http.StatusBadRequest, ErrorTypeDecoding
	case errors.As(err, &tokenErr):
		return http.StatusInternalServerError, ErrorTypeTokenization
	case errors.As(err, &invariant):
		return http.StatusInternalServerError, ErrorTypeInvariant
	default:
		return http.StatusInternalServerError, ErrorTypeInternal
	}
}
