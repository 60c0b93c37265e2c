// Package scoring drives per-area grading of CV text against an
// external model provider and aggregates the results into an
// AnalysisRecord.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/okian/vitae/internal/adapters/repository"
	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/pkg/logger"
	"github.com/okian/vitae/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultCallTimeout = 60 * time.Second
	defaultMaxInFlight = 3
)

// errMalformedResponse marks grading responses that failed to parse;
// these are retried like transient upstream failures.
var errMalformedResponse = errors.New("malformed grading response")

// TextGenerator abstracts the model provider. The fast model handles
// cheap screening passes; the accurate model handles full grading.
type TextGenerator interface {
	// Generate sends prompt to the named model and returns the textual
	// response plus the billed token count.
	Generate(ctx context.Context, model, prompt string) (string, int, error)

	FastModel() string
	AccurateModel() string
}

// Orchestrator runs the scoring pipeline: one grading task per area,
// bounded concurrency, retries with backoff, aggregation, and a single
// atomic append to the store.
type Orchestrator struct {
	gen   TextGenerator
	store repository.Store

	policy      Policy
	callTimeout time.Duration
	maxInFlight int
	globalSem   *semaphore.Weighted
	minLevel    model.Level

	logger logger.Logger
}

// New constructs an Orchestrator. The retry policy's predicate is
// extended so malformed grading responses are retried alongside
// transient upstream failures.
func New(gen TextGenerator, store repository.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:         gen,
		store:       store,
		policy:      DefaultPolicy(nil),
		callTimeout: defaultCallTimeout,
		maxInFlight: defaultMaxInFlight,
		minLevel:    model.LevelIntermediate,
		logger:      logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(o)
	}

	upstream := o.policy.Retryable
	o.policy.Retryable = func(err error) bool {
		if errors.Is(err, errMalformedResponse) {
			return true
		}
		return upstream != nil && upstream(err)
	}
	return o
}

// areaOutcome carries one area's grading result back to the aggregator.
// Outcomes are keyed by area, never by arrival order.
type areaOutcome struct {
	area     model.Area
	score    float64
	specs    []model.Specialization
	calls    int
	tokens   int
	unscored bool
}

// Submit grades cvText against every area and appends the resulting
// record to the store. Individual area failures degrade to a sentinel
// score; the submission fails only on empty input, full upstream
// exhaustion, cancellation, or a storage failure.
func (o *Orchestrator) Submit(ctx context.Context, cvText, filename string) (*model.AnalysisRecord, error) {
	text := strings.TrimSpace(cvText)
	if text == "" {
		return nil, fmt.Errorf("submit %s: %w", filename, ErrEmptyCV)
	}

	start := time.Now()
	areas := model.Areas()
	outcomes := make([]areaOutcome, len(areas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxInFlight)
	for i, area := range areas {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out, err := o.gradeArea(gctx, area, text)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation discards all partial area results; nothing is
		// ever appended for an aborted submission.
		metrics.RecordAnalysisFailed()
		return nil, fmt.Errorf("submit %s: %w", filename, err)
	}

	summary, summaryCalls, summaryTokens := o.summarize(ctx, text)

	scores := make(map[model.Area]float64, len(areas))
	var (
		specs    []model.Specialization
		unscored []model.Area
		apiCalls = summaryCalls
		tokens   = summaryTokens
	)
	for _, out := range outcomes {
		scores[out.area] = out.score
		apiCalls += out.calls
		tokens += out.tokens
		if out.unscored {
			unscored = append(unscored, out.area)
			continue
		}
		specs = append(specs, out.specs...)
	}

	if len(unscored) == len(areas) {
		metrics.RecordAnalysisFailed()
		return nil, fmt.Errorf("submit %s: %w", filename, ErrAllAreasFailed)
	}

	// Union across areas ordered by the originating area's score, so
	// the strongest findings lead.
	sort.SliceStable(specs, func(i, j int) bool {
		si, sj := scores[specs[i].Area], scores[specs[j].Area]
		if si != sj {
			return si > sj
		}
		if specs[i].Level != specs[j].Level {
			return specs[i].Level > specs[j].Level
		}
		return specs[i].Name < specs[j].Name
	})

	rec := &model.AnalysisRecord{
		ID:                  uuid.NewString(),
		Filename:            filename,
		Timestamp:           time.Now().UTC(),
		AreaScores:          scores,
		MostFittedArea:      model.MostFitted(scores),
		Specializations:     specs,
		CandidateSummary:    summary,
		AnalysisTimeSeconds: round2(time.Since(start).Seconds()),
		APICalls:            apiCalls,
		TokensUsed:          tokens,
		ModelUsed:           o.gen.AccurateModel(),
		UnscoredAreas:       unscored,
	}

	if err := o.store.Append(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			rec.ID = uuid.NewString()
			err = o.store.Append(ctx, rec)
		}
		if err != nil {
			metrics.RecordAnalysisFailed()
			return nil, fmt.Errorf("store analysis: %w", err)
		}
	}

	metrics.RecordAnalysisProcessed()
	metrics.RecordAnalysisDuration(rec.AnalysisTimeSeconds)
	metrics.RecordTokensUsed(tokens)
	o.logger.Info(ctx, "analysis complete",
		logger.String("id", rec.ID),
		logger.String("filename", filename),
		logger.String("most_fitted_area", string(rec.MostFittedArea)),
		logger.Int("api_calls", apiCalls),
		logger.Int("unscored_areas", len(unscored)),
		logger.Float64("seconds", rec.AnalysisTimeSeconds),
	)
	return rec, nil
}

// gradeArea runs the fast screening pass and the accurate grading pass
// for one area. Only context cancellation is returned as an error;
// exhausted retries degrade to a sentinel outcome.
func (o *Orchestrator) gradeArea(ctx context.Context, area model.Area, cvText string) (areaOutcome, error) {
	out := areaOutcome{area: area}

	// Screening pass on the cheap model. Failure here falls back to
	// grading directly with the accurate model.
	var focus string
	raw, fastTokens, err := o.callModel(ctx, o.gen.FastModel(), buildClassifyPrompt(area, cvText))
	out.calls++
	out.tokens += fastTokens
	switch {
	case ctx.Err() != nil:
		return out, ctx.Err()
	case err != nil:
		o.logger.Warn(ctx, "screening pass failed, grading without focus",
			logger.String("area", string(area)),
			logger.Error(err),
		)
	default:
		if f, perr := parseClassifyResponse(raw); perr == nil {
			focus = f
		}
	}

	var parsed *gradeResponse
	err = o.policy.Do(ctx, func(ctx context.Context) error {
		out.calls++
		raw, tokens, err := o.callModel(ctx, o.gen.AccurateModel(), buildGradePrompt(area, cvText, focus))
		out.tokens += tokens
		if err != nil {
			return err
		}
		p, err := parseGradeResponse(area, raw)
		if err != nil {
			return fmt.Errorf("%w: %w", errMalformedResponse, err)
		}
		parsed = p
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		// Retry budget spent: sentinel score, area flagged unscored,
		// submission carries on.
		metrics.RecordUpstreamError()
		metrics.RecordAreaUnscored(string(area))
		out.unscored = true
		o.logger.Warn(ctx, "area exhausted retry budget",
			logger.String("area", string(area)),
			logger.Error(err),
		)
		return out, nil
	}

	out.score = parsed.Score
	for _, spec := range parsed.Specializations {
		if spec.Level >= o.minLevel {
			out.specs = append(out.specs, spec)
		}
	}
	return out, nil
}

// summarize produces the optional candidate summary on the fast model.
// Failures leave the summary empty and never fail the submission.
func (o *Orchestrator) summarize(ctx context.Context, cvText string) (string, int, int) {
	raw, tokens, err := o.callModel(ctx, o.gen.FastModel(), buildSummaryPrompt(cvText))
	if err != nil {
		o.logger.Warn(ctx, "summary pass failed", logger.Error(err))
		return "", 1, tokens
	}
	return strings.TrimSpace(raw), 1, tokens
}

// callModel issues one provider call under the global in-flight bound
// and the per-call timeout.
func (o *Orchestrator) callModel(ctx context.Context, modelName, prompt string) (string, int, error) {
	if o.globalSem != nil {
		if err := o.globalSem.Acquire(ctx, 1); err != nil {
			return "", 0, err
		}
		defer o.globalSem.Release(1)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	raw, tokens, err := o.gen.Generate(callCtx, modelName, prompt)
	metrics.RecordUpstreamCall(modelName)
	metrics.RecordGradingLatency(time.Since(start).Seconds())
	return raw, tokens, err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
