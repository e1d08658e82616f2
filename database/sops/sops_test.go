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

package sops_test

import (
	"testing"

	"github.com/blinklabs-io/lazarus/database/sops"
	"github.com/stretchr/testify/assert"
)

func TestIsEncrypted(t *testing.T) {
	assert.True(t, sops.IsEncrypted([]byte(
		`{"data":"ENC[AES256_GCM,data:abc]","sops":{"version":"3.11.0"}}`,
	)))
	assert.False(t, sops.IsEncrypted([]byte(`{"data":"plain"}`)))
	assert.False(t, sops.IsEncrypted([]byte{0x82, 0x01, 0x02}))
}

func TestDecryptRejectsPlaintext(t *testing.T) {
	_, err := sops.Decrypt([]byte("not a sops document"))
	assert.Error(t, err)
}
