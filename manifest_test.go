package galactic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
name: standard-pass
steps:
  - name: cool-gas
    kind: cooling
  - name: form-stars
    kind: star-formation
    module: quiescent-sf
    optional: true
  - name: trace
    kind: diagnostics
    enabled: false
`

func TestParsePipelineManifest(t *testing.T) {
	p, err := ParsePipelineManifest([]byte(sampleManifest), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "standard-pass", p.Name())
	require.Equal(t, 3, p.Len())

	steps := p.Steps()
	assert.Equal(t, PipelineStep{Kind: KindCooling, Name: "cool-gas", Enabled: true}, steps[0])
	assert.Equal(t, PipelineStep{
		Kind:       KindStarFormation,
		ModuleName: "quiescent-sf",
		Name:       "form-stars",
		Enabled:    true,
		Optional:   true,
	}, steps[1])
	assert.Equal(t, KindDiagnostics, steps[2].Kind)
	assert.False(t, steps[2].Enabled, "explicit enabled: false survives the default")
}

func TestParsePipelineManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "not yaml",
			yaml:    "steps: [unbalanced",
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "no steps",
			yaml:    "name: empty-pass",
			wantErr: ErrManifestEmpty,
		},
		{
			name:    "step without name",
			yaml:    "steps:\n  - kind: cooling",
			wantErr: ErrManifestStepName,
		},
		{
			name:    "unknown kind",
			yaml:    "steps:\n  - name: x\n    kind: warp-drive",
			wantErr: ErrManifestKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipelineManifest([]byte(tt.yaml), nil, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParsePipelineManifestDefaultName(t *testing.T) {
	p, err := ParsePipelineManifest([]byte("steps:\n  - name: x\n    kind: custom"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "pipeline", p.Name())
}

func TestParsePipelineManifestRespectsCapacity(t *testing.T) {
	_, err := ParsePipelineManifest([]byte(sampleManifest), &CoreConfig{MaxPipelineSteps: 2}, nil)
	assert.ErrorIs(t, err, ErrPipelineFull)
}

func TestLoadPipelineManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	p, err := LoadPipelineManifest(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "standard-pass", p.Name())

	_, err = LoadPipelineManifest(filepath.Join(t.TempDir(), "absent.yaml"), nil, nil)
	assert.Error(t, err)
}
