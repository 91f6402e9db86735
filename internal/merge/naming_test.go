package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNameFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: "Merged %s"},
		{format: "%s (frames)"},
		{format: "100%% %s"},
		{format: "Merged", wantErr: true},
		{format: "%s and %s", wantErr: true},
		{format: "Merged %d", wantErr: true},
		{format: "Merged %s %", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateNameFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergedName(t *testing.T) {
	assert.Equal(t, "Merged ligand-7", MergedName(DefaultNameFormat, "ligand-7"))
	assert.Equal(t, "100% ligand", MergedName("100%% %s", "ligand"))
}
