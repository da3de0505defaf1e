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

// Variant selects how the analyzer segments compound words.
type Variant string

const (
	NormalVariant   Variant = "normal"
	SearchVariant   Variant = "search"
	ExtendedVariant Variant = "extended"
)

// Variants lists every variant the pool serves, in mode order.
var Variants = []Variant{NormalVariant, SearchVariant, ExtendedVariant}

// FeatureCount is the number of features the IPA dictionary attaches to a
// known, non-user token. Index 8 holds the pronunciation.
const FeatureCount = 9

const PronunciationFeature = 8

type Token struct {
	Surface  string
	BaseForm string
	// POS holds the four part-of-speech levels. Unused levels are "*" or "".
	POS           [4]string
	Reading       string
	Pronunciation string
	Known         bool
	User          bool
	Features      []string
}
