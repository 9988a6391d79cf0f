package galactic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, kind ModuleKind) PipelineStep {
	return PipelineStep{Name: name, Kind: kind, Enabled: true}
}

func stepNames(p *Pipeline) []string {
	steps := p.Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestPipelineAddAndInsert(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	require.NoError(t, p.AddStep(step("cooling", KindCooling)))
	require.NoError(t, p.AddStep(step("feedback", KindFeedback)))
	require.NoError(t, p.InsertStep(1, step("starform", KindStarFormation)))

	assert.Equal(t, []string{"cooling", "starform", "feedback"}, stepNames(p))
	assert.Equal(t, 3, p.Len())
}

func TestPipelineInsertValidation(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	require.NoError(t, p.AddStep(step("cooling", KindCooling)))

	err := p.AddStep(PipelineStep{Kind: KindCooling, Enabled: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = p.AddStep(PipelineStep{Name: "bad", Kind: kindCount + 1, Enabled: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = p.InsertStep(5, step("late", KindFeedback))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	err = p.InsertStep(-1, step("early", KindFeedback))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// Failed inserts leave the list untouched.
	assert.Equal(t, []string{"cooling"}, stepNames(p))
}

func TestPipelineCapacity(t *testing.T) {
	p := NewPipeline("model", &CoreConfig{MaxPipelineSteps: 2}, nil)
	require.NoError(t, p.AddStep(step("a", KindCustom)))
	require.NoError(t, p.AddStep(step("b", KindCustom)))

	err := p.AddStep(step("c", KindCustom))
	assert.ErrorIs(t, err, ErrPipelineFull)
	assert.Equal(t, 2, p.Len())
}

func TestPipelineRemoveStep(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, p.AddStep(step(n, KindCustom)))
	}

	require.NoError(t, p.RemoveStep(1))
	assert.Equal(t, []string{"a", "c"}, stepNames(p))

	assert.ErrorIs(t, p.RemoveStep(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, p.RemoveStep(-1), ErrIndexOutOfRange)

	require.NoError(t, p.RemoveStepByName("c"))
	assert.Equal(t, []string{"a"}, stepNames(p))
	assert.ErrorIs(t, p.RemoveStepByName("c"), ErrStepNotFound)
}

func TestPipelineMoveStep(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
		wantErr  error
	}{
		{name: "forward", from: 0, to: 2, want: []string{"b", "c", "a"}},
		{name: "backward", from: 2, to: 0, want: []string{"c", "a", "b"}},
		{name: "same position", from: 1, to: 1, want: []string{"a", "b", "c"}},
		{name: "from out of range", from: 3, to: 0, wantErr: ErrIndexOutOfRange},
		{name: "to out of range", from: 0, to: 3, wantErr: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline("model", nil, nil)
			for _, n := range []string{"a", "b", "c"} {
				require.NoError(t, p.AddStep(step(n, KindCustom)))
			}
			err := p.MoveStep(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, []string{"a", "b", "c"}, stepNames(p))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepNames(p))
		})
	}
}

func TestPipelineSetStepEnabled(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	require.NoError(t, p.AddStep(step("a", KindCustom)))

	require.NoError(t, p.SetStepEnabled(0, false))
	assert.False(t, p.Steps()[0].Enabled)
	require.NoError(t, p.SetStepEnabled(0, true))
	assert.True(t, p.Steps()[0].Enabled)

	assert.ErrorIs(t, p.SetStepEnabled(1, true), ErrIndexOutOfRange)
}

func TestPipelineLookups(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	require.NoError(t, p.AddStep(step("cooling", KindCooling)))
	require.NoError(t, p.AddStep(step("agn", KindFeedback)))
	require.NoError(t, p.AddStep(step("sn", KindFeedback)))

	s, idx, ok := p.StepByName("agn")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, KindFeedback, s.Kind)

	_, idx, ok = p.StepByName("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	fb := p.StepsByKind(KindFeedback)
	require.Len(t, fb, 2)
	assert.Equal(t, "agn", fb[0].Name)
	assert.Equal(t, "sn", fb[1].Name)
	assert.Empty(t, p.StepsByKind(KindMergers))
}

func TestPipelineReset(t *testing.T) {
	p := NewPipeline("model", &CoreConfig{MaxPipelineSteps: 4}, nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, p.AddStep(step(fmt.Sprintf("s%d", i), KindCustom)))
	}
	p.Reset()
	assert.Zero(t, p.Len())

	// Capacity is fully available again after a reset.
	for i := 0; i < 4; i++ {
		require.NoError(t, p.AddStep(step(fmt.Sprintf("r%d", i), KindCustom)))
	}
}

func TestPipelineStepsReturnsCopy(t *testing.T) {
	p := NewPipeline("model", nil, nil)
	require.NoError(t, p.AddStep(step("a", KindCustom)))

	steps := p.Steps()
	steps[0].Name = "mutated"
	assert.Equal(t, "a", p.Steps()[0].Name)
}
