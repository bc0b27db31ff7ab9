package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over chat/completions. Long
// documents are chunked on paragraph boundaries; each chunk is sent as its own
// request and the per-chunk records merge first-non-empty-wins. Any chunk
// failing fails the whole call, and the pipeline degrades to
// deterministic-only output.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (candidate.Record, []byte, error) {
	// Reuse the pipeline's per-file request id when the caller put one in ctx.
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	log := c.logger.With("req_id", rid)
	if h := common.FileHashFromContext(ctx); len(h) >= 12 {
		log = log.With("hash", h[:12])
	}

	chunks := llm.SplitChunks(req.Text, c.cfg.MaxChars)
	log.Info("llm.extract.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"chunks", len(chunks),
	)
	if len(chunks) == 0 {
		return candidate.Record{}, nil, common.NewAppError(common.CodeUnparsableResponse, "no text to extract from", nil)
	}

	recs := make([]candidate.Record, 0, len(chunks))
	for i, chunk := range chunks {
		rec, err := c.extractChunk(ctx, req.FilenameHint, chunk, i+1, len(chunks))
		if err != nil {
			log.Error("llm.extract.chunk_failed",
				"chunk", i+1,
				"of", len(chunks),
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return candidate.Record{}, nil, err
		}
		recs = append(recs, rec)
	}

	merged := llm.MergeChunkRecords(recs)
	raw, err := json.Marshal(merged)
	if err != nil {
		return candidate.Record{}, nil, fmt.Errorf("marshal merged record: %w", err)
	}

	log.Info("llm.extract.ok",
		"name", merged.Identity.Name,
		"email", merged.Identity.Email,
		"chunks", len(chunks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return merged, raw, nil
}

func (c *Client) extractChunk(ctx context.Context, filename, text string, n, total int) (candidate.Record, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(text, filename, n, total)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(llm.BuildCandidateJSONSchema())},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return candidate.Record{}, classifyTransportError(err, status)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "decode completion envelope", err)
	}
	if len(cc.Choices) == 0 {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "no choices in model response", nil)
	}

	content := extractJSONObject(cc.Choices[0].Message.Content)
	if content == "" {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "no JSON object in model reply", nil)
	}

	cleaned, _, err := llm.NormalizeAndSanitizeJSON([]byte(content), c.logger)
	if err != nil {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "sanitize model reply", err)
	}
	if err := llm.ValidateCandidateJSON(cleaned); err != nil {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "model reply failed schema validation", err)
	}

	var rec candidate.Record
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return candidate.Record{}, common.NewAppError(common.CodeUnparsableResponse, "unmarshal candidate record", err)
	}
	return rec, nil
}

// classifyTransportError folds an HTTP failure into the model error taxonomy:
// timeouts become MODEL_TIMEOUT, everything else (refused connections,
// non-2xx statuses) becomes MODEL_UNAVAILABLE.
func classifyTransportError(err error, status int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError(common.CodeModelTimeout, "model request timed out", err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return common.NewAppError(common.CodeModelTimeout, "model request timed out", err)
	}
	if status > 0 {
		return common.NewAppError(common.CodeModelUnavailable, fmt.Sprintf("model endpoint returned %d", status), err)
	}
	return common.NewAppError(common.CodeModelUnavailable, "model endpoint unreachable", err)
}

// extractJSONObject cuts the first-'{' to last-'}' span out of a model reply,
// tolerating code fences and prose around the JSON.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
