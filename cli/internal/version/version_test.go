package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/wporm/cli/internal/version"
)

func TestReport(t *testing.T) {
	info := version.Get()
	assert.Len(t, info.Providers, 4)

	report := info.Report("")
	assert.Contains(t, report, "wporm dev")
	assert.Contains(t, report, "sqlite (sqlite3)")
	assert.Contains(t, report, "duckdb (duckdb)")
	assert.NotContains(t, report, "Server:")

	assert.Contains(t, info.Report("mysql 8.0.36"), "\nServer: mysql 8.0.36")
}
