package logx

import (
	"bytes"
	"testing"

	"github.com/grocer-core-poc/server/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { Init(LoggerOpts{Environment: core.Testing}) })

	Debug().Msg("hidden")
	Info().Str("tool", "get_user_details").Msg("tool finished")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"tool":"get_user_details"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestInitTestingOnlyWarn(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Testing, Output: &buf})

	Info().Msg("quiet")
	Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
