package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

// SplitChunks cuts text into pieces of at most maxChars, breaking only on
// paragraph boundaries (blank lines) so a labeled value is never split across
// chunks. A single paragraph larger than the budget is hard-split as a last
// resort.
func SplitChunks(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	paras := strings.Split(text, "\n\n")
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for len(p) > maxChars {
			flush()
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(p[cut]) {
				cut--
			}
			if cut == 0 {
				// budget smaller than one rune; take the rune anyway
				_, cut = utf8.DecodeRuneInString(p)
			}
			chunks = append(chunks, p[:cut])
			p = strings.TrimSpace(p[cut:])
		}
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+2+len(p) > maxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	flush()
	return chunks
}

// MergeChunkRecords folds per-chunk records into one with first-non-empty
// wins per field. candidate.Merge already implements exactly that pairwise
// (left side wins, right side fills gaps), so the fold reuses it.
func MergeChunkRecords(recs []candidate.Record) candidate.Record {
	if len(recs) == 0 {
		return candidate.Record{}
	}
	out := recs[0]
	for _, r := range recs[1:] {
		out = candidate.Merge(
			candidate.ExtractionResult{Record: out, Source: candidate.SourceGenerative},
			candidate.ExtractionResult{Record: r, Source: candidate.SourceGenerative},
		)
	}
	return out
}
