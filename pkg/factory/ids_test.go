package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractExplicitIDs(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantMachines []string
		wantJobs     []string
	}{
		{
			name:         "numeric ids",
			text:         "Jobs J1 and J2 both pass through M1 and M2.",
			wantMachines: []string{"M1", "M2"},
			wantJobs:     []string{"J1", "J2"},
		},
		{
			name:         "underscore ids",
			text:         "Route J_rush through M_lathe before M_paint.",
			wantMachines: []string{"M_lathe", "M_paint"},
			wantJobs:     []string{"J_rush"},
		},
		{
			name:         "duplicates collapse and output sorts",
			text:         "M2 feeds M10, then M2 again; J3 J10 J3.",
			wantMachines: []string{"M10", "M2"},
			wantJobs:     []string{"J10", "J3"},
		},
		{
			name:         "word boundary rejects embedded ids",
			text:         "The OEM1 program and DJ2 booth are not resources.",
			wantMachines: []string{},
			wantJobs:     []string{},
		},
		{
			name:         "matching is case sensitive",
			text:         "machines m1 and m2 handle job j1",
			wantMachines: []string{},
			wantJobs:     []string{},
		},
		{
			name:         "bare prefix is not an id",
			text:         "M and J on their own mean nothing.",
			wantMachines: []string{},
			wantJobs:     []string{},
		},
		{
			name:         "punctuation still bounds ids",
			text:         "Finish J1, then J2; M3 is free.",
			wantMachines: []string{"M3"},
			wantJobs:     []string{"J1", "J2"},
		},
		{
			name:         "empty text",
			text:         "",
			wantMachines: []string{},
			wantJobs:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := ExtractExplicitIDs(tt.text)
			assert.Equal(t, tt.wantMachines, ids.MachineIDs)
			assert.Equal(t, tt.wantJobs, ids.JobIDs)
		})
	}
}
