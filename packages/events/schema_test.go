package events

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStream(t *testing.T) {
	t.Run("valid stream", func(t *testing.T) {
		issues, err := ValidateStream(strings.NewReader(goTestStream))
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("reports offending lines", func(t *testing.T) {
		input := `{"Action":"pass","Test":"TestA"}

{"Test":"TestB"}
{"Action":"explode"}
not json
{"Action":"pass","Elapsed":-1}
`
		issues, err := ValidateStream(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, issues, 4)

		assert.Equal(t, 3, issues[0].Line)
		assert.Contains(t, issues[0].Message, "Action")
		assert.Equal(t, 4, issues[1].Line)
		assert.Equal(t, 5, issues[2].Line)
		assert.Contains(t, issues[2].Message, "invalid JSON")
		assert.Equal(t, 6, issues[3].Line)
		assert.Equal(t, "line 6: "+issues[3].Message, issues[3].String())
	})
}
