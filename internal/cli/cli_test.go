package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-race/typerace/internal/domain"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), strings.Join(args, " "))
	return out.String()
}

// ─── Rendering ──────────────────────────────────────────────────────────────

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(".", barWidth)+"]", renderBar(0))
	assert.Equal(t, "["+strings.Repeat("=", barWidth)+"]", renderBar(100))
	assert.Equal(t, "["+strings.Repeat("=", barWidth)+"]", renderBar(250), "clamped")

	half := renderBar(50)
	assert.Len(t, half, barWidth+2)
	assert.Equal(t, 14, strings.Count(half, "="))
	assert.Contains(t, half, ">")
}

func TestDescribeCriterion(t *testing.T) {
	assert.Equal(t, "wpm >= 50", describeCriterion(domain.WPMCriterion{Cmp: domain.AtLeast, Target: 50}))
	assert.Equal(t, "time_played >= 60 min", describeCriterion(domain.TimePlayedCriterion{Cmp: domain.AtLeast, Minutes: 60}))
	assert.Equal(t, "10 sessions in a row at 95%+ accuracy",
		describeCriterion(domain.StreakCriterion{Cmp: domain.Consecutive, Length: 10}))
}

func TestRarityColor(t *testing.T) {
	assert.Same(t, legendaryColor, rarityColor(domain.RarityLegendary))
	assert.Same(t, commonColor, rarityColor("mythic"))
}

// ─── Commands ───────────────────────────────────────────────────────────────

func TestCommands_EndToEnd(t *testing.T) {
	t.Setenv("TYPERACE_HOME", t.TempDir())
	t.Setenv("TYPERACE_STORE", "sqlite")

	out := run(t, "badges")
	assert.Contains(t, out, "legendary_typist")
	assert.Contains(t, out, "wpm >= 130")

	out = run(t, "record", "racer", "--wpm", "45", "--accuracy", "96", "--time", "30")
	assert.Contains(t, out, "Unlocked 🎈")
	assert.Contains(t, out, "First Steps")
	assert.Contains(t, out, "Level up: 🎯 Skilled")

	out = run(t, "progress", "racer")
	assert.Contains(t, out, "5 of 19 badges unlocked")
	assert.Contains(t, out, "(new)")

	out = run(t, "viewed", "racer", "first_steps", "quick_learner")
	assert.Contains(t, out, "2 badge(s) marked as viewed")

	out = run(t, "stat", "racer")
	assert.Contains(t, out, "XP:              45")
	assert.Contains(t, out, "🪶 Quick Learner")

	out = run(t, "leaderboard", "--limit", "5", "--offset", "0")
	assert.Contains(t, out, "racer")
	assert.Contains(t, out, "45")
}

func TestViewed_UnknownBadge(t *testing.T) {
	t.Setenv("TYPERACE_HOME", t.TempDir())
	t.Setenv("TYPERACE_STORE", "sqlite")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"viewed", "racer", "no_such_badge"})
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, domain.ErrUnknownBadge)
}
