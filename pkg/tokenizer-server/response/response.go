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

package response

import (
	"fmt"
	"strings"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

// Unavailable replaces readings and pronunciations the dictionary cannot
// vouch for.
const Unavailable = "?"

type TokenView struct {
	Surface       string `json:"surface"`
	Base          string `json:"base"`
	POS           string `json:"pos"`
	Reading       string `json:"reading"`
	Pronunciation string `json:"pronunciation"`
}

type TokenizationResponse struct {
	Input   string      `json:"input"`
	Tokens  []TokenView `json:"tokens"`
	Mode    int         `json:"mode"`
	Viterbi string      `json:"viterbi,omitempty"`
}

// InvariantError means the tokenizer produced a known dictionary token whose
// feature layout differs from the one this service was built against.
type InvariantError struct {
	Index    int
	Surface  string
	Features int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("token %d (%q) has %d features, expected %d",
		e.Index, e.Surface, e.Features, tokenization.FeatureCount)
}

// Assemble builds the response for tokens produced from text. The viterbi
// field is left empty.
func Assemble(text string, mode int, tokens []tokenization.Token) (*TokenizationResponse, error) {
	views := make([]TokenView, 0, len(tokens))
	for i, tok := range tokens {
		view, err := NewTokenView(tok)
		if err != nil {
			if ie, ok := err.(*InvariantError); ok {
				ie.Index = i
			}
			return nil, err
		}
		views = append(views, view)
	}
	return &TokenizationResponse{
		Input:  text,
		Tokens: views,
		Mode:   mode,
	}, nil
}

func NewTokenView(tok tokenization.Token) (TokenView, error) {
	view := TokenView{
		Surface:       tok.Surface,
		Base:          tok.BaseForm,
		POS:           strings.Join(tok.POS[:], ","),
		Reading:       tok.Reading,
		Pronunciation: Unavailable,
	}
	if !tok.Known {
		view.Reading = Unavailable
	}
	if tok.Known && !tok.User {
		if len(tok.Features) != tokenization.FeatureCount {
			return TokenView{}, &InvariantError{Surface: tok.Surface, Features: len(tok.Features)}
		}
		view.Pronunciation = tok.Features[tokenization.PronunciationFeature]
	}
	return view, nil
}
