package telemetry_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/splinterhq/libsplinter/internal/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.New(telemetry.Config{Level: telemetry.Warn, Output: &buf, Component: "test"})

	l.Info("should not appear")
	assert.Empty(t, buf.String())

	l.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestComponentAndFieldsAppear(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.New(telemetry.Config{Level: telemetry.Debug, Output: &buf, Component: "purge"})

	l.Info("swept slots", telemetry.F("count", 12), telemetry.F("skipped", 3))
	line := buf.String()
	assert.True(t, strings.Contains(line, "[purge]"))
	assert.True(t, strings.Contains(line, "count=12"))
	assert.True(t, strings.Contains(line, "skipped=3"))
}
