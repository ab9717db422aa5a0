package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"digitaldemocracy/internal/studio"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Here you go: {"a":{"b":2}} hope it helps`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"say \"hi\" }"}`, `{"a":"say \"hi\" }"}`},
		{"array", `[{"a":1},{"a":2}] trailing`, `[{"a":1},{"a":2}]`},
		{"none", "no json here", ""},
		{"unbalanced", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParsePlan(t *testing.T) {
	text := "```json\n" + `{
		"postText": " Clean water for all. ",
		"hashtags": ["#CleanWater", "Action", " ", "#Water Rights"],
		"visuals": [
			{"description": "river photo", "type": "image"},
			{"description": "march", "type": "VIDEO"},
			{"description": "", "type": "image"},
			{"description": "poster", "type": "gif"}
		]
	}` + "\n```"

	plan, err := parsePlan(text)
	require.NoError(t, err)

	want := studio.CampaignPlan{
		PostText: "Clean water for all.",
		Hashtags: []string{"#CleanWater", "#Action", "#WaterRights"},
		Visuals: []studio.VisualSuggestion{
			{Description: "river photo", Kind: studio.KindImage},
			{Description: "march", Kind: studio.KindVideo},
		},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePlan_Errors(t *testing.T) {
	for _, in := range []string{"", "sorry, I can't", `{"postText": ""}`, `{"postText": 5}`} {
		_, err := parsePlan(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestGroundingSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "WHO", URI: "https://who.int"}},
					{Web: &genai.GroundingChunkWeb{Title: "WHO again", URI: "https://who.int"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://un.org"}},
					{},
				},
			},
		}},
	}
	got := groundingSources(resp)
	assert.Equal(t, []studio.Source{
		{Title: "WHO", URI: "https://who.int"},
		{Title: "https://un.org", URI: "https://un.org"},
	}, got)

	assert.Nil(t, groundingSources(nil))
	assert.Nil(t, groundingSources(&genai.GenerateContentResponse{}))
}

func TestClassify(t *testing.T) {
	marker := studio.CredentialInvalidMarker
	tests := []struct {
		name      string
		err       error
		video     bool
		wantKind  studio.FailureKind
		wantMatch string
	}{
		{"plain", errors.New("boom"), false, studio.FailureRecoverable, "boom"},
		{"marker on video", errors.New("API key is not valid for Veo"), true, studio.FailureCredentialInvalid, "API key is not valid"},
		{"marker off video path", errors.New("API key is not valid"), false, studio.FailureRecoverable, "API key is not valid"},
		{"403 on video", genai.APIError{Code: 403, Message: "permission denied"}, true, studio.FailureCredentialInvalid, "permission denied"},
		{"wrapped 401 on video", fmt.Errorf("submit: %w", genai.APIError{Code: 401, Message: "unauthenticated"}), true, studio.FailureCredentialInvalid, "unauthenticated"},
		{"500 on video", genai.APIError{Code: 500, Message: "internal"}, true, studio.FailureRecoverable, "internal"},
		{"deadline", context.DeadlineExceeded, true, studio.FailureRecoverable, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("generate_video", tt.err, tt.video, marker)
			var ge *studio.GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.wantKind, ge.Kind)
			assert.Contains(t, ge.Error(), tt.wantMatch)
			assert.Equal(t, tt.err, ge.Err)
		})
	}

	existing := studio.CredentialInvalid("x", errors.New("y"))
	assert.Same(t, existing, classify("op", existing, false, marker))
	assert.NoError(t, classify("op", nil, true, marker))
}

func TestDataURL_RoundTrip(t *testing.T) {
	loc := dataURL("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.Equal(t, "data:image/png;base64,iVBORw==", loc)

	mime, data, err := parseDataURL(loc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	for _, bad := range []string{"img://1", "data:image/png", "data:text/plain,hello", "data:image/png;base64,%%%"} {
		_, _, err := parseDataURL(bad)
		assert.Error(t, err, bad)
	}
}
