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
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/normalizer"
)

const maxBodyBytes = 1 << 20

// TokenizationRequest is a parsed tokenize call. Text still carries its
// percent escapes, to be decoded with Encoding.
type TokenizationRequest struct {
	Text     string
	Encoding string
	Mode     int
}

type jsonRequest struct {
	Text     *string `json:"text"`
	Encoding string  `json:"encoding"`
	Mode     *int    `json:"mode"`
}

// ErrBadRequest is returned for requests that cannot be parsed.
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e ErrBadRequest) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ErrBadRequest) Unwrap() error {
	return e.Cause
}

// ParseRequest reads a tokenize request from the query string, an urlencoded
// or multipart form, or a JSON body.
//
// Query and urlencoded form values of text are taken raw, so that the
// percent escapes are decoded with the charset named by encoding rather than
// as UTF-8. Multipart and JSON text is percent-decoded the same way, with
// utf-8 when encoding is absent.
func ParseRequest(c *gin.Context) (TokenizationRequest, error) {
	if c.Request.Method != http.MethodPost {
		return parseValues(c.Request.URL.RawQuery, "")
	}

	switch c.ContentType() {
	case binding.MIMEJSON:
		return parseJSON(c)
	case binding.MIMEMultipartPOSTForm:
		text, ok := c.GetPostForm("text")
		if !ok {
			return TokenizationRequest{}, ErrBadRequest{Message: "text is required"}
		}
		req := TokenizationRequest{
			Text:     text,
			Encoding: normalizer.DefaultEncoding,
		}
		if enc := c.PostForm("encoding"); enc != "" {
			req.Encoding = enc
		}
		mode, err := parseMode(c.PostForm("mode"))
		if err != nil {
			return TokenizationRequest{}, err
		}
		req.Mode = mode
		return req, nil
	default:
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			return TokenizationRequest{}, ErrBadRequest{Message: "failed to read request body", Cause: err}
		}
		return parseValues(string(body), c.Request.URL.RawQuery)
	}
}

// parseValues looks parameters up in primary first and then in fallback,
// both raw urlencoded strings.
func parseValues(primary, fallback string) (TokenizationRequest, error) {
	lookup := func(key string) (string, bool) {
		if v, ok := normalizer.RawValue(primary, key); ok {
			return v, true
		}
		return normalizer.RawValue(fallback, key)
	}

	text, ok := lookup("text")
	if !ok {
		return TokenizationRequest{}, ErrBadRequest{Message: "text is required"}
	}
	req := TokenizationRequest{
		Text:     text,
		Encoding: normalizer.DefaultEncoding,
	}
	if raw, ok := lookup("encoding"); ok && raw != "" {
		enc, err := url.QueryUnescape(raw)
		if err != nil {
			return TokenizationRequest{}, ErrBadRequest{Message: "malformed encoding parameter", Cause: err}
		}
		req.Encoding = enc
	}
	if raw, ok := lookup("mode"); ok {
		value, err := url.QueryUnescape(raw)
		if err != nil {
			return TokenizationRequest{}, ErrBadRequest{Message: "malformed mode parameter", Cause: err}
		}
		if req.Mode, err = parseMode(value); err != nil {
			return TokenizationRequest{}, err
		}
	}
	return req, nil
}

func parseJSON(c *gin.Context) (TokenizationRequest, error) {
	var body jsonRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(&body); err != nil {
		return TokenizationRequest{}, ErrBadRequest{Message: "malformed JSON body", Cause: err}
	}
	if body.Text == nil {
		return TokenizationRequest{}, ErrBadRequest{Message: "text is required"}
	}
	req := TokenizationRequest{
		Text:     *body.Text,
		Encoding: normalizer.DefaultEncoding,
	}
	if body.Encoding != "" {
		req.Encoding = body.Encoding
	}
	if body.Mode != nil {
		req.Mode = *body.Mode
	}
	return req, nil
}

func parseMode(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	mode, err := strconv.Atoi(value)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, ErrBadRequest{Message: fmt.Sprintf("mode must be an integer, got %q", value), Cause: err}
	}
	return mode, nil
}
