package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteJSON(&buf, map[string]int{"current": 3}))
	assert.Equal(t, "{\n  \"current\": 3\n}\n", buf.String())
}

func TestWriteJSONUnsupportedValue(t *testing.T) {
	var buf bytes.Buffer

	assert.Error(t, WriteJSON(&buf, make(chan int)))
}
