package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitGuilds(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitGuilds(""))
	assert.Equal(t, []string{"guild:1", "guild:2"}, splitGuilds(" guild:1, ,guild:2 "))
}
