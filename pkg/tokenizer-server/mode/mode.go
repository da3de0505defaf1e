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

package mode

import (
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

type Mode int

const (
	Normal     Mode = 0
	Search     Mode = 1
	Extended   Mode = 2
	Diagnostic Mode = 3
)

const (
	MaxInputLength           = 512
	MaxDiagnosticInputLength = 32
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Search:
		return "search"
	case Extended:
		return "extended"
	case Diagnostic:
		return "diagnostic"
	default:
		return "illegal"
	}
}

// Entry is one row of the mode table.
type Entry struct {
	Mode       Mode                 `json:"mode"`
	Name       string               `json:"name"`
	Variant    tokenization.Variant `json:"variant"`
	MaxLength  int                  `json:"maxLength"`
	Diagnostic bool                 `json:"diagnostic"`
}

var table = map[Mode]Entry{
	Normal:     {Mode: Normal, Name: Normal.String(), Variant: tokenization.NormalVariant, MaxLength: MaxInputLength},
	Search:     {Mode: Search, Name: Search.String(), Variant: tokenization.SearchVariant, MaxLength: MaxInputLength},
	Extended:   {Mode: Extended, Name: Extended.String(), Variant: tokenization.ExtendedVariant, MaxLength: MaxInputLength},
	Diagnostic: {Mode: Diagnostic, Name: Diagnostic.String(), Variant: tokenization.NormalVariant, MaxLength: MaxDiagnosticInputLength, Diagnostic: true},
}

// Resolve maps a client supplied mode code to its table entry. Unknown codes
// are not an error: they are logged and served with normal mode settings.
func Resolve(code int) Entry {
	if entry, ok := table[Mode(code)]; ok {
		return entry
	}
	klog.Warningf("Illegal mode %d. Using normal tokenizer.", code)
	metrics.IllegalModes.Inc()
	return table[Normal]
}

// Entries returns the table ordered by mode code.
func Entries() []Entry {
	return []Entry{table[Normal], table[Search], table[Extended], table[Diagnostic]}
}
