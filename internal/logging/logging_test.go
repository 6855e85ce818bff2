package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.WarnLevel)

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown", "layer", "roads")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "layer=roads")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, log.Default(), FromContext(context.Background()))
}
