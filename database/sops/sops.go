// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sops

import (
	"encoding/json"
	"fmt"

	"github.com/getsops/sops/v3/decrypt"
)

// Decrypt returns the plaintext of a SOPS binary document. The master keys
// are resolved from the environment the way the sops CLI does it
func Decrypt(data []byte) ([]byte, error) {
	ret, err := decrypt.Data(data, "binary")
	if err != nil {
		return nil, fmt.Errorf("sops decrypt: %w", err)
	}
	return ret, nil
}

// IsEncrypted reports whether data looks like a SOPS binary document
func IsEncrypted(data []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, hasData := doc["data"]
	_, hasSops := doc["sops"]
	return hasData && hasSops
}
