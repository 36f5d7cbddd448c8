package export

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Keep saved wizard answers out of the real state directory.
	dir, err := os.MkdirTemp("", "spread-export-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_STATE_HOME", dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
