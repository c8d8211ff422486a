package slugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"The Forest Hiker", "the-forest-hiker"},
		{"The Forest Hiker!", "the-forest-hiker"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Mixed -- separators__here", "mixed-separators-here"},
		{"UPPER case 42", "upper-case-42"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.name))
		})
	}
}
