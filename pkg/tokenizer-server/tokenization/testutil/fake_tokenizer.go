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

package testutil

import (
	"sync"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

// FakeTokenizer returns canned tokens and records the texts it was given.
type FakeTokenizer struct {
	Tokens   []tokenization.Token
	Err      error
	Graph    string
	GraphErr error

	mu    sync.Mutex
	texts []string
}

func (f *FakeTokenizer) Tokenize(text string) ([]tokenization.Token, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Tokens, nil
}

func (f *FakeTokenizer) DebugAnalyze(text string) (string, error) {
	if f.GraphErr != nil {
		return "", f.GraphErr
	}
	return f.Graph, nil
}

// Texts returns every text passed to Tokenize so far.
func (f *FakeTokenizer) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// NewPool builds a pool that serves fake for every variant.
func NewPool(fake *FakeTokenizer) *tokenization.TokenizerPool {
	tokenizers := make(map[tokenization.Variant]tokenization.Tokenizer, len(tokenization.Variants))
	for _, v := range tokenization.Variants {
		tokenizers[v] = fake
	}
	pool, err := tokenization.NewTokenizerPool(tokenizers, fake)
	if err != nil {
		panic(err)
	}
	return pool
}

// KnownToken builds a dictionary token with the full IPA feature layout.
func KnownToken(surface, base, reading, pronunciation string, pos ...string) tokenization.Token {
	var levels [4]string
	for i := range levels {
		levels[i] = "*"
	}
	copy(levels[:], pos)
	return tokenization.Token{
		Surface:       surface,
		BaseForm:      base,
		POS:           levels,
		Reading:       reading,
		Pronunciation: pronunciation,
		Known:         true,
		Features: []string{
			levels[0], levels[1], levels[2], levels[3], "*", "*", base, reading, pronunciation,
		},
	}
}
