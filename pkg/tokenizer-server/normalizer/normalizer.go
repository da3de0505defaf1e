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

// Package normalizer turns the raw text parameter of a tokenize request into
// the text handed to the tokenizer.
package normalizer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
)

const DefaultEncoding = "utf-8"

// DecodingError reports an unknown charset or text that cannot be decoded
// with it.
type DecodingError struct {
	Encoding string
	Message  string
	Cause    error
}

func (e *DecodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot decode text as %q: %s: %v", e.Encoding, e.Message, e.Cause)
	}
	return fmt.Sprintf("cannot decode text as %q: %s", e.Encoding, e.Message)
}

func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// Normalize percent-decodes raw using the named charset and truncates the
// result to maxLength code points.
func Normalize(raw, encodingName string, maxLength int) (string, error) {
	text, err := Decode(raw, encodingName)
	if err != nil {
		return "", err
	}
	return Truncate(text, maxLength), nil
}

// Decode percent-decodes raw with form semantics: '+' becomes a space and
// every run of %XX escapes is decoded as one byte sequence in the named
// charset. Characters outside escapes are kept as they are.
func Decode(raw, encodingName string) (string, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, isUTF8, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}
	if !strings.ContainsAny(raw, "%+") {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		switch c := raw[i]; c {
		case '+':
			b.WriteByte(' ')
			i++
		case '%':
			var seq []byte
			for i < len(raw) && raw[i] == '%' {
				if i+2 >= len(raw) {
					return "", &DecodingError{Encoding: encodingName, Message: "incomplete escape sequence at end of input"}
				}
				v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8)
				if err != nil {
					return "", &DecodingError{
						Encoding: encodingName,
						Message:  fmt.Sprintf("illegal escape %q at offset %d", raw[i:i+3], i),
						Cause:    err,
					}
				}
				seq = append(seq, byte(v))
				i += 3
			}
			decoded, err := decodeBytes(seq, enc, isUTF8)
			if err != nil {
				return "", &DecodingError{Encoding: encodingName, Message: "invalid byte sequence", Cause: err}
			}
			b.WriteString(decoded)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// Truncate cuts text down to maxLength code points. A negative maxLength
// disables truncation.
func Truncate(text string, maxLength int) string {
	if maxLength < 0 || len(text) <= maxLength {
		return text
	}
	length := utf8.RuneCountInString(text)
	if length <= maxLength {
		return text
	}

	cut, n := len(text), 0
	for offset := range text {
		if n == maxLength {
			cut = offset
			break
		}
		n++
	}
	klog.Warningf("Input length %d exceeds max length. Trimming to max length of %d", length, maxLength)
	metrics.InputTruncations.Inc()
	return text[:cut]
}

// RawValue returns the still escaped value of the first key parameter in an
// urlencoded string, so that its escapes can be decoded with a charset other
// than UTF-8.
func RawValue(query, key string) (string, bool) {
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if name, err := url.QueryUnescape(k); err == nil && name == key {
			return v, true
		}
	}
	return "", false
}

func lookupEncoding(name string) (encoding.Encoding, bool, error) {
	enc, err := htmlindex.Get(name)
	if err == nil {
		canonical, _ := htmlindex.Name(enc)
		return enc, canonical == "utf-8", nil
	}
	enc, ianaErr := ianaindex.IANA.Encoding(name)
	if ianaErr != nil || enc == nil {
		return nil, false, &DecodingError{Encoding: name, Message: "unsupported charset", Cause: err}
	}
	return enc, false, nil
}

func decodeBytes(seq []byte, enc encoding.Encoding, isUTF8 bool) (string, error) {
	if isUTF8 {
		if !utf8.Valid(seq) {
			return "", fmt.Errorf("% x is not valid utf-8", seq)
		}
		return string(seq), nil
	}
	out, err := enc.NewDecoder().Bytes(seq)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
