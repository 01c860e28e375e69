package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecReader(t *testing.T) {
	t.Parallel()

	lines := []string{}
	ExecReader(strings.NewReader("keys 7+2\n\n  # comment\n key exec \nscreen"), func(line string) {
		lines = append(lines, line)
	})
	assert.Equal(t, []string{"keys 7+2", "key exec", "screen"}, lines)
}
