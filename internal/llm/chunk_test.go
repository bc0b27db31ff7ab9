package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

func TestSplitChunks(t *testing.T) {
	t.Run("text within budget is a single chunk", func(t *testing.T) {
		got := SplitChunks("one\n\ntwo", 100)
		assert.Equal(t, []string{"one\n\ntwo"}, got)
	})

	t.Run("zero budget disables chunking", func(t *testing.T) {
		got := SplitChunks("one\n\ntwo", 0)
		assert.Equal(t, []string{"one\n\ntwo"}, got)
	})

	t.Run("empty and whitespace-only text yield nil", func(t *testing.T) {
		assert.Nil(t, SplitChunks("", 10))
		assert.Nil(t, SplitChunks("  \n\t\n  ", 10))
	})

	t.Run("splits on paragraph boundaries", func(t *testing.T) {
		got := SplitChunks("aaa\n\nbbb\n\nccc", 8)
		assert.Equal(t, []string{"aaa\n\nbbb", "ccc"}, got)
	})

	t.Run("a paragraph is never cut when it fits", func(t *testing.T) {
		text := "Email: asha@x.com\n\nPhone: +919876543210"
		got := SplitChunks(text, 20)
		require.Len(t, got, 2)
		assert.Equal(t, "Email: asha@x.com", got[0])
		assert.Equal(t, "Phone: +919876543210", got[1])
	})

	t.Run("oversize paragraph is hard split at the budget", func(t *testing.T) {
		text := strings.Repeat("x", 25)
		got := SplitChunks(text, 10)
		require.Len(t, got, 3)
		assert.Equal(t, strings.Repeat("x", 10), got[0])
		assert.Equal(t, strings.Repeat("x", 10), got[1])
		assert.Equal(t, strings.Repeat("x", 5), got[2])
		assert.Equal(t, text, strings.Join(got, ""))
	})

	t.Run("hard split does not cut a rune in half", func(t *testing.T) {
		text := strings.Repeat("é", 30) // 2 bytes per rune
		for _, c := range SplitChunks(text, 11) {
			assert.True(t, len(c) <= 11)
			assert.Equal(t, strings.Repeat("é", len([]rune(c))), c)
		}
	})

	t.Run("no chunk exceeds the budget", func(t *testing.T) {
		var parts []string
		for i := 0; i < 12; i++ {
			parts = append(parts, strings.Repeat("para ", 10))
		}
		for _, c := range SplitChunks(strings.Join(parts, "\n\n"), 120) {
			assert.LessOrEqual(t, len(c), 120)
		}
	})
}

func TestMergeChunkRecords(t *testing.T) {
	t.Run("empty input yields zero record", func(t *testing.T) {
		assert.Equal(t, candidate.Record{}, MergeChunkRecords(nil))
	})

	t.Run("single record passes through", func(t *testing.T) {
		rec := candidate.Record{Identity: candidate.Identity{Name: "Asha Rao"}}
		assert.Equal(t, rec, MergeChunkRecords([]candidate.Record{rec}))
	})

	t.Run("earlier chunks win on overlap, later fill gaps", func(t *testing.T) {
		got := MergeChunkRecords([]candidate.Record{
			{Identity: candidate.Identity{Name: "Asha Rao"}},
			{Identity: candidate.Identity{Name: "WRONG", Email: "asha@x.com"}},
			{Identity: candidate.Identity{Phone: "+919876543210"}},
		})
		assert.Equal(t, "Asha Rao", got.Identity.Name)
		assert.Equal(t, "asha@x.com", got.Identity.Email)
		assert.Equal(t, "+919876543210", got.Identity.Phone)
	})

	t.Run("first chunk with a list keeps the whole list", func(t *testing.T) {
		got := MergeChunkRecords([]candidate.Record{
			{},
			{Education: []candidate.EducationEntry{{Degree: "B.Tech", Year: "2012"}}},
			{Education: []candidate.EducationEntry{{Degree: "MBA"}}},
		})
		require.Len(t, got.Education, 1)
		assert.Equal(t, "B.Tech", got.Education[0].Degree)
	})
}
