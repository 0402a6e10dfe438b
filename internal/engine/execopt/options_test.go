package execopt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tartan/internal/engine/execopt"
	"github.com/kode4food/tartan/pkg/api"
)

func TestDefaultOptions(t *testing.T) {
	opt := execopt.DefaultOptions()
	assert.True(t, opt.PreserveArtifacts)
	assert.Zero(t, opt.MaxRetries)
	assert.Empty(t, opt.ResumeFrom)
}

func TestAppliers(t *testing.T) {
	opt := execopt.DefaultOptions(
		execopt.WithResumeFrom("b"),
		execopt.WithPreserveArtifacts(false),
		execopt.WithMaxRetries(5),
	)
	assert.Equal(t, api.NodeID("b"), opt.ResumeFrom)
	assert.False(t, opt.PreserveArtifacts)
	assert.Equal(t, 5, opt.MaxRetries)
}

func TestMaxRetriesFloor(t *testing.T) {
	assert.Equal(t, 1,
		execopt.DefaultOptions(execopt.WithMaxRetries(0)).MaxRetries,
	)
	assert.Equal(t, 1,
		execopt.DefaultOptions(execopt.WithMaxRetries(-3)).MaxRetries,
	)
}
