package iojson

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	t.Run("writes indented json", func(t *testing.T) {
		var out, errOut bytes.Buffer

		require.NoError(t, WriteWith(&out, &errOut, map[string]int{"unread_count": 2}))
		assert.JSONEq(t, `{"unread_count": 2}`, out.String())
		assert.Empty(t, errOut.String())
	})

	t.Run("marshal failure reports to the error writer", func(t *testing.T) {
		var out, errOut bytes.Buffer

		_ = WriteWith(&out, &errOut, func() {})
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "json_error")
	})
}
