package directive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobot/picobot/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestExtract_NoDirectives(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, residual := e.Extract("Just a normal reply with no commands.")
	assert.Empty(t, dirs)
	assert.Equal(t, "Just a normal reply with no commands.", residual)
}

func TestExtract_SingleDirective(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, residual := e.Extract("Done! :::cron unico 5 15 31 1 Buy milk::: Anything else?")
	require.Len(t, dirs, 1)
	assert.Equal(t, KindScheduleCreate, dirs[0].Kind)
	assert.Equal(t, "cron", dirs[0].Head)
	assert.Equal(t, "unico 5 15 31 1 Buy milk", dirs[0].Body)
	assert.Equal(t, 0, dirs[0].OrderIndex)
	assert.Equal(t, "Done!  Anything else?", residual)
}

func TestExtract_MultipleInterleaved(t *testing.T) {
	e := NewExtractor(testLogger(t))

	input := "First :::cron_delete Water plants::: then " +
		":::cron recurrente 0 18 * * Water plants evening::: and " +
		":::memory likes evening reminders::: done."

	dirs, residual := e.Extract(input)
	require.Len(t, dirs, 3)
	assert.Equal(t, KindScheduleDelete, dirs[0].Kind)
	assert.Equal(t, KindScheduleCreate, dirs[1].Kind)
	assert.Equal(t, KindMemoryWrite, dirs[2].Kind)
	assert.Equal(t, []int{0, 1, 2}, []int{dirs[0].OrderIndex, dirs[1].OrderIndex, dirs[2].OrderIndex})
	assert.Equal(t, "First  then  and  done.", residual)
}

func TestExtract_HeadWithColonPadding(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, _ := e.Extract(":::search: latest Go release:::")
	require.Len(t, dirs, 1)
	assert.Equal(t, KindSearch, dirs[0].Kind)
	assert.Equal(t, "latest Go release", dirs[0].Body)
}

func TestExtract_UnterminatedIsResidual(t *testing.T) {
	e := NewExtractor(testLogger(t))

	input := "I will remind you :::cron unico 5 15 31 1 Buy milk"
	dirs, residual := e.Extract(input)
	assert.Empty(t, dirs)
	assert.Equal(t, input, residual)
}

func TestExtract_UnknownHeadStillExtracts(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, residual := e.Extract(":::teleport home:::")
	require.Len(t, dirs, 1)
	assert.Equal(t, KindUnknown, dirs[0].Kind)
	assert.Equal(t, "teleport", dirs[0].Head)
	assert.Equal(t, "home", dirs[0].Body)
	assert.Equal(t, "", residual)
}

func TestExtract_EmptyBodyDropped(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, residual := e.Extract("ok :::memory   ::: bye")
	assert.Empty(t, dirs)
	assert.Equal(t, "ok  bye", residual)
}

func TestExtract_MathWithoutBodyKept(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, _ := e.Extract("Let me compute that. :::math:::")
	require.Len(t, dirs, 1)
	assert.Equal(t, KindMathRedirect, dirs[0].Kind)
	assert.Equal(t, "", dirs[0].Body)
}

func TestExtract_ThinkBlocksStripped(t *testing.T) {
	e := NewExtractor(testLogger(t))

	input := "<think>I should :::cron unico 0 0 1 1 sneaky::: do this</think>Sure, done."
	dirs, residual := e.Extract(input)
	assert.Empty(t, dirs)
	assert.Equal(t, "Sure, done.", residual)
}

func TestExtract_UnterminatedThinkStripped(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, residual := e.Extract("Reply text.<think>trailing reasoning :::search x:::")
	assert.Empty(t, dirs)
	assert.Equal(t, "Reply text.", residual)
}

func TestExtract_MultilineBody(t *testing.T) {
	e := NewExtractor(testLogger(t))

	dirs, _ := e.Extract(":::memory\nuser prefers metric units:::")
	require.Len(t, dirs, 1)
	assert.Equal(t, "user prefers metric units", dirs[0].Body)
}

// Extraction is lossless on non-directive content: re-inserting the removed
// spans at their offsets reconstructs the (think-stripped) input.
func TestExtract_Lossless(t *testing.T) {
	e := NewExtractor(testLogger(t))

	inputs := []string{
		"plain text only",
		"a :::search b::: c",
		":::cron recurrente 0 9 * * Wake up ☀️:::",
		"x :::cron_delete one::: y :::memory two::: z",
		"broken :::cron tail",
		"unicode résidu :::photo cats::: fin",
	}

	for _, input := range inputs {
		dirs, residual := e.Extract(input)

		var rebuilt strings.Builder
		prev := 0
		rest := residual
		for _, d := range dirs {
			keep := d.Start - prev
			rebuilt.WriteString(rest[:keep])
			rebuilt.WriteString(input[d.Start:d.End])
			rest = rest[keep:]
			prev = d.End
		}
		rebuilt.WriteString(rest)

		assert.Equal(t, input, rebuilt.String(), "input: %q", input)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindScheduleCreate, KindOf("cron"))
	assert.Equal(t, KindScheduleDelete, KindOf("cron_delete"))
	assert.Equal(t, KindUnknown, KindOf("cronx"))
	assert.False(t, KindUnknown.Valid())
	assert.True(t, KindSearch.NeedsFollowUp())
	assert.False(t, KindScheduleCreate.NeedsFollowUp())
}
