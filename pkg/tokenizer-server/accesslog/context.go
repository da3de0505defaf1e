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

package accesslog

import (
	"time"
)

// AccessLogEntry is one access log line.
type AccessLogEntry struct {
	Timestamp   time.Time     `json:"timestamp"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Protocol    string        `json:"protocol"`
	StatusCode  int           `json:"status_code"`
	RequestID   string        `json:"request_id,omitempty"`
	Mode        *int          `json:"mode,omitempty"`
	InputLength int           `json:"input_length,omitempty"`
	Tokens      int           `json:"tokens,omitempty"`
	Viterbi     bool          `json:"viterbi,omitempty"`
	Duration    *DurationInfo `json:"duration,omitempty"`
	Error       *ErrorInfo    `json:"error,omitempty"`
}

// DurationInfo holds phase durations in milliseconds.
type DurationInfo struct {
	Total        int64 `json:"total"`
	Tokenization int64 `json:"tokenization"`
	Rendering    int64 `json:"rendering"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AccessLogContext collects request details while a request is handled.
type AccessLogContext struct {
	RequestID string
	Method    string
	Path      string
	Protocol  string
	StartTime time.Time

	Mode        *int
	InputLength int
	Tokens      int
	Viterbi     bool

	TokenizationStart time.Time
	TokenizationEnd   time.Time
	RenderStart       time.Time
	RenderEnd         time.Time

	Error *ErrorInfo
}

func NewAccessLogContext(requestID, method, path, protocol string) *AccessLogContext {
	return &AccessLogContext{
		RequestID: requestID,
		Method:    method,
		Path:      path,
		Protocol:  protocol,
		StartTime: time.Now(),
	}
}

func (ctx *AccessLogContext) SetRequest(mode, inputLength int) {
	ctx.Mode = &mode
	ctx.InputLength = inputLength
}

func (ctx *AccessLogContext) SetResult(tokens int, viterbi bool) {
	ctx.Tokens = tokens
	ctx.Viterbi = viterbi
}

func (ctx *AccessLogContext) SetError(errorType, message string) {
	ctx.Error = &ErrorInfo{Type: errorType, Message: message}
}

func (ctx *AccessLogContext) MarkTokenizationStart() {
	ctx.TokenizationStart = time.Now()
}

func (ctx *AccessLogContext) MarkTokenizationEnd() {
	ctx.TokenizationEnd = time.Now()
}

func (ctx *AccessLogContext) MarkRenderStart() {
	ctx.RenderStart = time.Now()
}

func (ctx *AccessLogContext) MarkRenderEnd() {
	ctx.RenderEnd = time.Now()
}

func (ctx *AccessLogContext) ToAccessLogEntry(statusCode int) *AccessLogEntry {
	now := time.Now()
	entry := &AccessLogEntry{
		Timestamp:   ctx.StartTime,
		Method:      ctx.Method,
		Path:        ctx.Path,
		Protocol:    ctx.Protocol,
		StatusCode:  statusCode,
		RequestID:   ctx.RequestID,
		Mode:        ctx.Mode,
		InputLength: ctx.InputLength,
		Tokens:      ctx.Tokens,
		Viterbi:     ctx.Viterbi,
		Error:       ctx.Error,
		Duration: &DurationInfo{
			Total:        now.Sub(ctx.StartTime).Milliseconds(),
			Tokenization: phase(ctx.TokenizationStart, ctx.TokenizationEnd),
			Rendering:    phase(ctx.RenderStart, ctx.RenderEnd),
		},
	}
	return entry
}

func phase(start, end time.Time) int64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Milliseconds()
}
