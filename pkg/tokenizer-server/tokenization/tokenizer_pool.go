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

package tokenization

import (
	"fmt"

	"k8s.io/klog/v2"
)

type TokenizerPoolConfig struct {
	// UserDictionary is an optional kagome user dictionary file.
	UserDictionary string
}

// TokenizerPool holds one tokenizer per variant plus the tokenizer used for
// lattice dumps. It is built once and never mutated afterwards, so it is
// read without locking by every request.
type TokenizerPool struct {
	tokenizers map[Variant]Tokenizer
	debug      DebugTokenizer
}

// NewTokenizerPool builds a pool from already constructed tokenizers. Every
// variant in Variants must be present.
func NewTokenizerPool(tokenizers map[Variant]Tokenizer, debug DebugTokenizer) (*TokenizerPool, error) {
	pool := &TokenizerPool{
		tokenizers: make(map[Variant]Tokenizer, len(tokenizers)),
		debug:      debug,
	}
	for _, v := range Variants {
		tok, ok := tokenizers[v]
		if !ok || tok == nil {
			return nil, ErrInvalidConfig{Message: fmt.Sprintf("no tokenizer for variant %q", v)}
		}
		pool.tokenizers[v] = tok
	}
	if debug == nil {
		return nil, ErrInvalidConfig{Message: "no debug tokenizer"}
	}
	return pool, nil
}

// NewKagomeTokenizerPool loads the IPA dictionary once and shares it across
// all variants.
func NewKagomeTokenizerPool(config TokenizerPoolConfig) (*TokenizerPool, error) {
	analyzer, err := newKagomeAnalyzer(config.UserDictionary)
	if err != nil {
		return nil, err
	}

	tokenizers := make(map[Variant]Tokenizer, len(kagomeModes))
	for v, m := range kagomeModes {
		tokenizers[v] = &kagomeTokenizer{analyzer: analyzer, mode: m}
	}
	klog.Infof("Created kagome tokenizers for variants %v", Variants)

	return NewTokenizerPool(tokenizers, &kagomeTokenizer{analyzer: analyzer, mode: kagomeModes[NormalVariant]})
}

func (p *TokenizerPool) Get(variant Variant) (Tokenizer, error) {
	tok, ok := p.tokenizers[variant]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer variant %q", variant)
	}
	return tok, nil
}
