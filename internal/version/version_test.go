package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	assert.Equal(t, Version, Full())

	originalBuildTime := BuildTime
	originalGitCommit := GitCommit
	defer func() {
		BuildTime = originalBuildTime
		GitCommit = originalGitCommit
	}()

	BuildTime = "2026-10-01"
	GitCommit = "0badc0de"

	full := Full()
	assert.Contains(t, full, Version)
	assert.Contains(t, full, "2026-10-01")
	assert.Contains(t, full, "0badc0de")
}
