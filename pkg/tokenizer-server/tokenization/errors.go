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

import "fmt"

type ErrInvalidConfig struct {
	Message string
	Cause   error
}

func (e ErrInvalidConfig) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid tokenizer config: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid tokenizer config: %s", e.Message)
}

func (e ErrInvalidConfig) Unwrap() error {
	return e.Cause
}

type ErrTokenizationFailed struct {
	Variant Variant
	Message string
	Cause   error
}

func (e ErrTokenizationFailed) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tokenization failed (%s): %s: %v", e.Variant, e.Message, e.Cause)
	}
	return fmt.Sprintf("tokenization failed (%s): %s", e.Variant, e.Message)
}

func (e ErrTokenizationFailed) Unwrap() error {
	return e.Cause
}
