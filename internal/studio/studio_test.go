package studio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudio_OpenStartsFresh(t *testing.T) {
	st := New(&MockGateway{}, &MockGate{})
	defer st.Close()
	ctx := context.Background()

	first := st.Open(ctx)
	require.NoError(t, first.SubmitIdea(ctx, "water"))

	second := st.Open(ctx)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, StepIdea, second.Snapshot().Step)
	assert.True(t, first.Snapshot().Closed, "opening closes the previous session")
	assert.Same(t, second, st.Current())
}

func TestStudio_OpenRefreshesGate(t *testing.T) {
	gate := &MockGate{RefreshFunc: func(ctx context.Context) bool { return true }}
	st := New(&MockGateway{}, gate)
	defer st.Close()

	st.Open(context.Background())
	assert.Equal(t, int32(1), gate.refreshCalls.Load())
	assert.True(t, gate.IsReady())
	assert.Zero(t, gate.ensureCalls.Load(), "opening never prompts")
}

func TestStudio_CloseDiscardsLateResult(t *testing.T) {
	call := newBlockingCall()
	gw := &MockGateway{
		PlanCampaignFunc: func(ctx context.Context, prompt string) (CampaignPlan, error) {
			call.wait()
			return cleanWaterPlan(), nil
		},
	}
	st := New(gw, &MockGate{})
	sess := st.Open(context.Background())

	done := make(chan error, 1)
	go func() { done <- sess.SubmitIdea(context.Background(), "water") }()
	<-call.started

	st.Close()
	reopened := st.Open(context.Background())
	close(call.release)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	assert.Nil(t, sess.Snapshot().Plan)
	assert.Nil(t, reopened.Snapshot().Plan)
	assert.Equal(t, StepIdea, reopened.Snapshot().Step)
	st.Close()
	assert.Nil(t, st.Current())
}

func TestStudio_CurrentNilAfterSelection(t *testing.T) {
	st := New(&MockGateway{}, &MockGate{})
	defer st.Close()
	ctx := context.Background()
	sess := st.Open(ctx)
	require.NoError(t, sess.SubmitIdea(ctx, "water"))
	require.NoError(t, sess.RequestVisual(ctx, VisualSuggestion{Description: "river", Kind: KindImage}, AspectSquare))

	_, err := sess.SelectAsset(sess.Snapshot().Assets[0])
	require.NoError(t, err)
	assert.Nil(t, st.Current())
}

func TestIsCredentialInvalid(t *testing.T) {
	assert.False(t, IsCredentialInvalid(nil, ""))
	assert.True(t, IsCredentialInvalid(CredentialInvalid("op", nil), ""))
	assert.False(t, IsCredentialInvalid(Recoverable("op", assert.AnError), ""))
	assert.True(t, IsCredentialInvalid(Recoverable("op", errString("API key is not valid for Veo")), ""))
	assert.True(t, IsCredentialInvalid(errString("key revoked"), "key revoked"))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestPresetAspects(t *testing.T) {
	assert.Equal(t, []AspectRatio{AspectSquare, AspectLandscape}, PresetAspects(KindImage))
	assert.Equal(t, []AspectRatio{AspectLandscape, AspectPortrait}, PresetAspects(KindVideo))
	for _, a := range PresetAspects(KindVideo) {
		assert.True(t, KindVideo.SupportsAspect(a))
	}
	assert.False(t, KindVideo.SupportsAspect(AspectSquare))
}
