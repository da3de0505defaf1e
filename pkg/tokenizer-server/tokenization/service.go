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

// Tokenize runs text through the tokenizer bound to variant. Failures are
// reported as ErrTokenizationFailed with the analyzer error as Cause; there
// is no retry.
func (p *TokenizerPool) Tokenize(variant Variant, text string) ([]Token, error) {
	tok, err := p.Get(variant)
	if err != nil {
		return nil, ErrTokenizationFailed{Variant: variant, Message: "no tokenizer", Cause: err}
	}
	tokens, err := tok.Tokenize(text)
	if err != nil {
		return nil, ErrTokenizationFailed{Variant: variant, Message: "analyzer error", Cause: err}
	}
	return tokens, nil
}

// DebugAnalyze returns the dot description of the lattice built for text.
func (p *TokenizerPool) DebugAnalyze(text string) (string, error) {
	graph, err := p.debug.DebugAnalyze(text)
	if err != nil {
		return "", ErrTokenizationFailed{Variant: NormalVariant, Message: "lattice dump", Cause: err}
	}
	return graph, nil
}
