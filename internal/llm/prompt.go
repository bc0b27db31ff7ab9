package llm

import (
	"strconv"
	"strings"
)

// BuildSystemPrompt composes the system message: schema discipline, date and
// phone formatting rules, and the no-fabrication rule that keeps absence
// absent.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a candidate-profile parser for recruitment documents (resumes, CVs, ID summaries).",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Phone numbers: digits only, optional leading + country code, no spaces or dashes.",
		"PAN, UAN and passport numbers exactly as printed, uppercase.",
		"Education: one entry per qualification with institution, degree and year.",
		"Experience: one entry per employment with employer, title, start_date and end_date.",

		// formatting hygiene:
		"Never output null and never output an empty string. If a field is not present in the document, omit the key entirely.",
		"Never guess or invent a value that is not visible in the text.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages one text chunk with its filename hint. chunk is
// 1-based. The text is already cut to the configured budget upstream; no
// truncation here.
func BuildUserPrompt(text, filename string, chunk, totalChunks int) string {
	var b strings.Builder
	if filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}
	if totalChunks > 1 {
		b.WriteString("Document part ")
		b.WriteString(strconv.Itoa(chunk))
		b.WriteString(" of ")
		b.WriteString(strconv.Itoa(totalChunks))
		b.WriteString(" (fields may also live in other parts; extract only what this part shows).\n")
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(text)
	return b.String()
}
