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
	"bytes"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"k8s.io/klog/v2"
)

// kagomeTokenizer binds a shared kagome analyzer to one segmentation mode.
type kagomeTokenizer struct {
	analyzer *tokenizer.Tokenizer
	mode     tokenizer.TokenizeMode
}

var kagomeModes = map[Variant]tokenizer.TokenizeMode{
	NormalVariant:   tokenizer.Normal,
	SearchVariant:   tokenizer.Search,
	ExtendedVariant: tokenizer.Extended,
}

// newKagomeAnalyzer loads the IPA dictionary and, when a path is given, a
// user dictionary on top of it.
func newKagomeAnalyzer(userDictPath string) (*tokenizer.Tokenizer, error) {
	opts := []tokenizer.Option{tokenizer.OmitBosEos()}
	if userDictPath != "" {
		udict, err := dict.NewUserDict(userDictPath)
		if err != nil {
			return nil, ErrInvalidConfig{
				Message: "failed to load user dictionary " + userDictPath,
				Cause:   err,
			}
		}
		opts = append(opts, tokenizer.UserDict(udict))
		klog.Infof("Loaded user dictionary %s", userDictPath)
	}

	analyzer, err := tokenizer.New(ipa.Dict(), opts...)
	if err != nil {
		return nil, ErrInvalidConfig{Message: "failed to build kagome tokenizer", Cause: err}
	}
	return analyzer, nil
}

func (k *kagomeTokenizer) Tokenize(text string) ([]Token, error) {
	analyzed := k.analyzer.Analyze(text, k.mode)
	tokens := make([]Token, 0, len(analyzed))
	for _, kt := range analyzed {
		if kt.Class == tokenizer.DUMMY {
			continue
		}
		tokens = append(tokens, convertKagomeToken(kt))
	}
	return tokens, nil
}

func (k *kagomeTokenizer) DebugAnalyze(text string) (string, error) {
	var buf bytes.Buffer
	k.analyzer.AnalyzeGraph(&buf, text, k.mode)
	return buf.String(), nil
}

func convertKagomeToken(kt tokenizer.Token) Token {
	tok := Token{
		Surface:  kt.Surface,
		BaseForm: "*",
		Known:    kt.Class == tokenizer.KNOWN,
		User:     kt.Class == tokenizer.USER,
		Features: kt.Features(),
	}
	copy(tok.POS[:], kt.POS())
	if base, ok := kt.BaseForm(); ok {
		tok.BaseForm = base
	}
	if reading, ok := kt.Reading(); ok {
		tok.Reading = reading
	}
	if pronunciation, ok := kt.Pronunciation(); ok {
		tok.Pronunciation = pronunciation
	}
	return tok
}

var _ DebugTokenizer = (*kagomeTokenizer)(nil)
