package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFactoryShape(t *testing.T) {
	cfg := DefaultFactory()

	require.NotNil(t, cfg)
	assert.Equal(t, []string{"M1", "M2", "M3"}, cfg.MachineIDs())
	assert.Equal(t, []string{"J1", "J2", "J3"}, cfg.JobIDs())

	// The demo shop must survive its own normalization untouched.
	normalized, warnings := Normalize(rawFromConfig(cfg))
	require.NotNil(t, normalized)
	assert.Empty(t, warnings)
	assert.Equal(t, cfg, normalized)
}

func TestDefaultFactoryReturnsFreshCopies(t *testing.T) {
	first := DefaultFactory()
	first.Jobs[0].Steps[0].DurationHours = 99
	first.Machines[0].ID = "M_broken"

	second := DefaultFactory()
	assert.Equal(t, 1, second.Jobs[0].Steps[0].DurationHours)
	assert.Equal(t, "M1", second.Machines[0].ID)
}

func TestDefaultFactoryDescriptionNamesEveryResource(t *testing.T) {
	text := DefaultFactoryDescription()
	ids := ExtractExplicitIDs(text)

	assert.Equal(t, []string{"M1", "M2", "M3"}, ids.MachineIDs)
	assert.Equal(t, []string{"J1", "J2", "J3"}, ids.JobIDs)
}
