package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValueUnmarshal(t *testing.T) {
	var a AnswerValue

	require.NoError(t, json.Unmarshal([]byte(`"B"`), &a))
	assert.True(t, a.IsStr)
	assert.Equal(t, "B", a.Str)

	require.NoError(t, json.Unmarshal([]byte(`["A","C"]`), &a))
	assert.True(t, a.IsList)
	assert.Equal(t, []string{"A", "C"}, a.List)

	require.NoError(t, json.Unmarshal([]byte(`3.14`), &a))
	assert.True(t, a.IsNum)
	assert.Equal(t, 3.14, a.Num)

	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.False(t, a.IsSet())
}

func TestAnswerValueUnmarshalRejectsObjects(t *testing.T) {
	var a AnswerValue
	err := json.Unmarshal([]byte(`{"min":1}`), &a)
	require.Error(t, err)
	// The message must be safe to format.
	assert.Contains(t, err.Error(), "unsupported JSON value")
	assert.False(t, a.IsSet())
}
