// Copyright 2025 MachSight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scoring

import (
	"fmt"
	"strings"
)

// MissingFeaturesError is reported when an input batch lacks one or
// more of the required sensor features. Retrying with the same input
// cannot succeed.
type MissingFeaturesError struct {
	Missing  []string
	Required []string
}

func (err MissingFeaturesError) Error() string {
	return fmt.Sprintf(
		"missing required features: %s (required features are: %s)",
		strings.Join(err.Missing, ", "),
		strings.Join(err.Required, ", "),
	)
}

// ModelInferenceError is reported when a constituent model of the
// ensemble rejects its (already sanitized and scaled) input. There is
// no meaningful partial result, so the whole call fails.
type ModelInferenceError struct {
	Target Target
	Model  string
	Err    error
}

func (err ModelInferenceError) Error() string {
	return fmt.Sprintf(
		"model inference failed for target %s, model %s: %s", err.Target, err.Model, err.Err)
}

func (err ModelInferenceError) Unwrap() error {
	return err.Err
}
