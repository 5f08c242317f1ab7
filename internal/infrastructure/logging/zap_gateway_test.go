package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"localconfig.dev/cli/internal/application/ports"
)

func TestZapGateway_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	gw := NewZapGatewayWithWriter(ports.LogLevelWarn, &buf)

	gw.Log(ports.LogLevelInfo, "hidden message", nil)
	assert.Empty(t, buf.String())

	gw.Log(ports.LogLevelWarn, "visible message", map[string]interface{}{"path": "/tmp/x"})
	assert.Contains(t, buf.String(), "visible message")
	assert.Contains(t, buf.String(), "/tmp/x")

	gw.SetLogLevel(ports.LogLevelDebug)
	assert.Equal(t, ports.LogLevelDebug, gw.GetLogLevel())

	buf.Reset()
	gw.Log(ports.LogLevelDebug, "debug message", nil)
	assert.Contains(t, buf.String(), "debug message")
}

func TestZapGateway_LogError(t *testing.T) {
	var buf bytes.Buffer
	gw := NewZapGatewayWithWriter(ports.LogLevelError, &buf)

	gw.LogError(errors.New("disk full"), "save failed", map[string]interface{}{"attempt": 2})

	assert.Contains(t, buf.String(), "save failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	gw := NewNop()
	gw.Log(ports.LogLevelError, "nothing", nil)
	gw.LogError(errors.New("x"), "nothing", nil)
	assert.Equal(t, ports.LogLevelError, gw.GetLogLevel())
}
