package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPhototoxExempt(t *testing.T) {
	tests := []struct {
		name   string
		exempt bool
	}{
		{"Bergamot FCF oil Sicilian", true},
		{"bergamot fcf", true},
		{"Lime Oil Distilled", true},
		{"Orange Terpeneless", true},
		{"LEMON OIL TERPENELESS EXTRA", true},
		{"Lemon Essential Oil", false},
		{"Bergamot Oil Expressed", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.exempt, IsPhototoxExempt(tt.name), "name %q", tt.name)
	}
}
