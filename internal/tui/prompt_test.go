package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/exlogic/internal/validate"
)

func evidence() Evidence {
	return Evidence{
		Start: validate.Result{OK: true},
		End: validate.Result{OK: false, Issues: []validate.Issue{
			{Message: "Torso tilt 50.0° exceeds 45.0°"},
		}},
		FigurePath: "squat/verification.png",
	}
}

func TestLineConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := NewLineConfirmer(strings.NewReader(tt.input), &out)

			got, err := c.Confirm("Squat", evidence())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "[Squat] Accept validated poses? (start OK, end FAIL) [y/N]: ", out.String())
		})
	}
}

func TestLineConfirmerReadsSuccessiveAnswers(t *testing.T) {
	c := NewLineConfirmer(strings.NewReader("y\nn\n"), &bytes.Buffer{})

	first, err := c.Confirm("a", evidence())
	require.NoError(t, err)
	second, err := c.Confirm("b", evidence())
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, c.Interactive())
}

func TestFixedConfirmers(t *testing.T) {
	ok, err := AutoApprove{}.Confirm("x", evidence())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, AutoApprove{}.Interactive())

	ok, err = Decline{}.Confirm("x", evidence())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, Decline{}.Interactive())

	assert.True(t, NewHuhConfirmer().Interactive())
}

func TestValidationText(t *testing.T) {
	want := strings.Join([]string{
		"Validation summary:",
		"Start: PASS",
		"",
		"End: FAIL",
		"- Torso tilt 50.0° exceeds 45.0°",
	}, "\n")
	assert.Equal(t, want, ValidationText(evidence()))
	assert.False(t, evidence().OK())
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("Squat", evidence(), DefaultStyles())

	for _, want := range []string{"Squat", "PASS", "FAIL", "Torso tilt", "verification.png"} {
		assert.Contains(t, out, want)
	}
}

func TestShouldPromptInCI(t *testing.T) {
	for _, env := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "true")
			assert.False(t, ShouldPrompt())
		})
	}
}
