// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTree(t *testing.T) {
	t.Parallel()
	root := WriteTree(t, map[string]string{
		"BUILD.cue":         "packages: []\n",
		"lib/sub/BUILD.hcl": "",
	})

	got, err := os.ReadFile(filepath.Join(root, "BUILD.cue"))
	if err != nil || string(got) != "packages: []\n" {
		t.Errorf("BUILD.cue = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(root, "lib", "sub", "BUILD.hcl")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}
