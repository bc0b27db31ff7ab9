package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/svtalent/candidate-intake/constants"
	"github.com/svtalent/candidate-intake/internal/candidate"
	"github.com/svtalent/candidate-intake/internal/common"
	"github.com/svtalent/candidate-intake/internal/extract"
	"github.com/svtalent/candidate-intake/internal/ingest"
	"github.com/svtalent/candidate-intake/internal/ledger"
	"github.com/svtalent/candidate-intake/internal/llm"
	"github.com/svtalent/candidate-intake/internal/parse"
	"github.com/svtalent/candidate-intake/internal/sink"
)

// TextAcquirer is the slice of the extraction layer the processor needs.
type TextAcquirer interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// Outcome summarizes one file's trip through the pipeline.
type Outcome struct {
	Path      string
	Hash      string
	Status    constants.FileStatus
	Duplicate bool
	Degraded  bool   // generative extractor contributed nothing
	Method    string // text acquisition method
	Record    candidate.Record
}

// Processor owns the per-file state machine: stability wait, content hash,
// ledger gate, extraction, merge, dispatch, ledger commit.
//
// Commit policy: a file is recorded in the ledger when dispatch succeeded,
// or when it failed for a reason reprocessing cannot change (unreadable
// input, unsupported format, sink rejection). Files that only failed to
// reach a sink stay uncommitted so a restart retries them.
type Processor struct {
	logger    *slog.Logger
	acquirer  TextAcquirer
	det       *parse.Extractor
	gen       llm.FieldExtractor // nil when no model endpoint is configured
	ledger    ledger.Store
	sinks     []sink.Sink
	retrier   *Retrier
	stability StabilityConfig
}

func NewProcessor(
	logger *slog.Logger,
	acquirer TextAcquirer,
	det *parse.Extractor,
	gen llm.FieldExtractor,
	store ledger.Store,
	sinks []sink.Sink,
	retry RetryConfig,
	stability StabilityConfig,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		acquirer:  acquirer,
		det:       det,
		gen:       gen,
		ledger:    store,
		sinks:     sinks,
		retrier:   NewRetrier(retry, logger),
		stability: stability.withDefaults(),
	}
}

// ProcessFile runs one file through the whole pipeline. Duplicates return
// a nil error with Duplicate set; they are the ledger doing its job, not a
// failure.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	out := Outcome{Path: path, Status: constants.FileStatusDiscovered}
	log := p.logger.With("req_id", rid, "path", path)

	log.Info("pipeline.file.start")

	// A file still being written hashes to a value no later run will
	// reproduce; wait until it sits still.
	if err := WaitStable(ctx, path, p.stability); err != nil {
		out.Status = constants.FileStatusFailed
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("pipeline.file.vanished")
			return out, err
		}
		log.Error("pipeline.file.unstable", "error", err.Error())
		return out, err
	}
	out.Status = constants.FileStatusStable

	out.Status = constants.FileStatusHashing
	hash, err := ingest.HashFile(path)
	if err != nil {
		out.Status = constants.FileStatusFailed
		log.Error("pipeline.file.hash_failed", "error", err.Error())
		return out, err
	}
	out.Hash = hash
	ctx = common.WithFileHash(ctx, hash)
	log = log.With("hash", shortHash(hash))

	out.Status = constants.FileStatusGated
	seen, err := p.ledger.Has(ctx, hash)
	if err != nil {
		out.Status = constants.FileStatusFailed
		log.Error("pipeline.ledger.lookup_failed", "error", err.Error())
		return out, err
	}
	if seen {
		out.Duplicate = true
		out.Status = constants.FileStatusCommitted
		log.Info("pipeline.file.duplicate")
		return out, nil
	}

	out.Status = constants.FileStatusExtracting
	res, err := p.acquirer.Extract(ctx, path)
	out.Method = res.Method
	if err != nil {
		switch common.CodeOf(err) {
		case common.CodeUnsupportedFormat, common.CodeCorruptFile:
			// The input itself is the problem; commit so it is never retried.
			log.Error("pipeline.extract.terminal", "code", common.CodeOf(err), "error", err.Error())
			out.Status = constants.FileStatusFailed
			p.commit(ctx, hash, path, log)
			return out, err
		case common.CodeOCRUnavailable:
			// res.Text carries whatever the text layer had.
			log.Warn("pipeline.extract.degraded", "code", common.CodeOf(err), "error", err.Error())
		default:
			log.Error("pipeline.extract.failed", "error", err.Error())
			out.Status = constants.FileStatusFailed
			return out, err
		}
	}

	detRes := p.det.Extract(res.Text, hash)
	genRes := p.runGenerative(ctx, path, res.Text, log)
	out.Degraded = !genRes.OK()

	out.Status = constants.FileStatusMerging
	out.Record = candidate.Merge(detRes, genRes)

	out.Status = constants.FileStatusDispatching
	if err := p.dispatch(ctx, out.Record, log); err != nil {
		out.Status = constants.FileStatusFailed
		if common.IsCode(err, common.CodeSinkRejected) {
			p.commit(ctx, hash, path, log)
		}
		return out, err
	}

	if err := p.ledger.Record(ctx, hash, path); err != nil {
		out.Status = constants.FileStatusFailed
		log.Error("pipeline.ledger.commit_failed", "error", err.Error())
		return out, err
	}
	out.Status = constants.FileStatusCommitted

	log.Info("pipeline.file.done",
		"candidate_id", out.Record.Identity.CandidateID,
		"method", out.Method,
		"degraded", out.Degraded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) runGenerative(ctx context.Context, path, text string, log *slog.Logger) candidate.ExtractionResult {
	if p.gen == nil || !p.gen.Available() {
		log.Debug("pipeline.generative.unavailable")
		return candidate.ExtractionResult{
			Source: candidate.SourceGenerative,
			Err:    common.NewAppError(common.CodeModelUnavailable, "no generative extractor configured", nil),
		}
	}
	if strings.TrimSpace(text) == "" {
		return candidate.ExtractionResult{
			Source: candidate.SourceGenerative,
			Err:    common.NewAppError(common.CodeUnparsableResponse, "no text to extract from", nil),
		}
	}

	rec, _, err := p.gen.ExtractFields(ctx, llm.ExtractRequest{
		Text:         text,
		FilenameHint: filepath.Base(path),
	})
	if err != nil {
		log.Warn("pipeline.generative.degraded", "code", common.CodeOf(err), "error", err.Error())
		return candidate.ExtractionResult{Source: candidate.SourceGenerative, Err: err}
	}
	return candidate.ExtractionResult{Record: rec, Source: candidate.SourceGenerative}
}

// dispatch delivers to every sink, each behind the retry machine. Failures
// are collected rather than short-circuited so one sink's trouble never
// starves another of the record. Unreachable dominates the returned error:
// the file must stay uncommitted so a restart can retry it.
func (p *Processor) dispatch(ctx context.Context, rec candidate.Record, log *slog.Logger) error {
	var unreachable, other error
	for _, s := range p.sinks {
		name := s.Name()
		deliver := s.Deliver
		err := p.retrier.Do(ctx, "sink."+name, func(ctx context.Context) error {
			return deliver(ctx, rec)
		})
		if err == nil {
			continue
		}
		log.Error("pipeline.sink.failed", "sink", name, "code", common.CodeOf(err), "error", err.Error())
		if common.IsCode(err, common.CodeSinkUnreachable) {
			if unreachable == nil {
				unreachable = err
			}
			continue
		}
		if other == nil {
			other = err
		}
	}
	if unreachable != nil {
		return unreachable
	}
	return other
}

func (p *Processor) commit(ctx context.Context, hash, path string, log *slog.Logger) {
	if err := p.ledger.Record(ctx, hash, path); err != nil {
		log.Error("pipeline.ledger.commit_failed", "error", err.Error())
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
