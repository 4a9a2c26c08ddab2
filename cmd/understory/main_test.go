package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory"
)

func TestParsePosition(t *testing.T) {
	t.Parallel()
	file, pos, err := parsePosition("src/app.py:12:4")
	require.NoError(t, err)
	assert.Equal(t, "src/app.py", file)
	assert.Equal(t, understory.Point{Line: 12, Col: 4}, pos)
}

func TestParsePosition_FileWithColon(t *testing.T) {
	t.Parallel()
	file, pos, err := parsePosition("c:/work/app.py:0:0")
	require.NoError(t, err)
	assert.Equal(t, "c:/work/app.py", file)
	assert.Equal(t, understory.Point{}, pos)
}

func TestParsePosition_Invalid(t *testing.T) {
	t.Parallel()
	cases := []string{
		"app.py",
		"app.py:12",
		"app.py:x:4",
		"app.py:12:y",
		"app.py:-1:4",
		":12:4",
	}
	for _, arg := range cases {
		_, _, err := parsePosition(arg)
		assert.Error(t, err, "argument %q", arg)
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("xml"))
}
