package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassthroughReturnsKeyVerbatim(t *testing.T) {
	var l Locale = Passthrough{}
	assert.Equal(t, "error.hash_mismatch", l.Message("error.hash_mismatch", "client.jar"))
}
