package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApp_ReleaseWithoutInit(t *testing.T) {
	a := NewApp(nil)
	assert.NotPanics(t, a.Release)
	assert.NotPanics(t, a.Release)
	assert.Nil(t, a.Device)
	assert.Nil(t, a.World)
}
