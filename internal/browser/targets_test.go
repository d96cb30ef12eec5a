package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetCommand(t *testing.T) {
	assert.Equal(t, "LEFT 640 360", Target{X: 640, Y: 360}.Command())
}

func TestFormatTargets(t *testing.T) {
	out := FormatTargets([]Target{
		{Selector: "#submit", Type: "button", Text: "Send", X: 5, Y: 7},
		{Selector: "[name=\"q\"]", Type: "search", X: 640, Y: 360},
	})

	assert.Equal(t,
		"LEFT 5 7      button   #submit \"Send\"\n"+
			"LEFT 640 360  search   [name=\"q\"]\n",
		out)
}

func TestFormatTargetsEmpty(t *testing.T) {
	assert.Equal(t, "No interactive elements found\n", FormatTargets(nil))
}
