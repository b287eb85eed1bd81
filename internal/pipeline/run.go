// Package pipeline orchestrates campaign copy generation across channels.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/llm"
	"github.com/jonathan/campaign-copy/internal/prompting"
	"github.com/jonathan/campaign-copy/internal/types"
)

// MaxVariants is the largest variant count a run accepts
const MaxVariants = 5

// ProgressEvent reports that a channel has completed
type ProgressEvent struct {
	RunID       string `json:"run_id,omitempty"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
}

// Fraction returns completed/total in [0, 1]
func (e ProgressEvent) Fraction() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Completed) / float64(e.Total)
}

// ProgressCallback is called synchronously after each channel completes
type ProgressCallback func(event ProgressEvent)

// Recorder persists runs. Implementations must tolerate concurrent runs.
type Recorder interface {
	CreateRun(ctx context.Context, run *types.Run) error
	CompleteRun(ctx context.Context, runID uuid.UUID, results []types.ChannelResult) error
	FailRun(ctx context.Context, runID uuid.UUID, message string) error
}

// RunOptions holds the inputs of one run
type RunOptions struct {
	RunID           uuid.UUID // generated when nil
	Product         types.Product
	Channels        []types.Channel // processed in this order
	Tone            string
	Occasion        string
	VariantCount    int
	Direction       string
	Model           string        // empty uses the client default
	MaxOutputTokens int           // zero uses the client default
	CallTimeout     time.Duration // bound on each generation call; zero means no bound
	OnProgress      ProgressCallback
}

// Validate rejects requests that must not reach the generation service
func (o *RunOptions) Validate() error {
	if o.Product.ID == "" {
		return &ValidationError{Field: "product", Message: "a product is required"}
	}
	if len(o.Channels) == 0 {
		return &ValidationError{Field: "channels", Message: "select at least one channel"}
	}
	if o.VariantCount < 1 || o.VariantCount > MaxVariants {
		return &ValidationError{
			Field:   "variant_count",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxVariants, o.VariantCount),
		}
	}
	return nil
}

// Runner generates and evaluates copy. It holds no per-run state, so one
// Runner may serve concurrent runs when its client is safe for concurrent use.
type Runner struct {
	client    llm.Client
	composer  *prompting.Composer
	evaluator *compliance.Evaluator
	recorder  Recorder
	logger    zerolog.Logger
}

// New creates a Runner
func New(client llm.Client, composer *prompting.Composer, evaluator *compliance.Evaluator, logger zerolog.Logger) *Runner {
	return &Runner{
		client:    client,
		composer:  composer,
		evaluator: evaluator,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// WithRecorder returns a copy of r that records runs with rec
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	clone := *r
	clone.recorder = rec
	return &clone
}

// Run generates copy for every channel in order and returns one result per channel.
// The first failure aborts the run; no partial results are returned.
func (r *Runner) Run(ctx context.Context, opts RunOptions) ([]types.ChannelResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}

	log := r.logger.With().
		Str("run_id", opts.RunID.String()).
		Str("product", opts.Product.ID).
		Logger()

	r.recordStart(ctx, opts, log)

	results := make([]types.ChannelResult, 0, len(opts.Channels))
	for i, channel := range opts.Channels {
		log.Debug().Str("channel", channel.ID).Msg("generating channel")

		result, err := r.runChannel(ctx, opts, channel)
		if err != nil {
			chErr := &ChannelError{ChannelID: channel.ID, ChannelName: channel.Name, Cause: err}
			log.Error().Err(err).Str("channel", channel.ID).Msg("run aborted")
			r.recordFailure(ctx, opts.RunID, chErr, log)
			return nil, chErr
		}
		results = append(results, result)

		log.Debug().
			Str("channel", channel.ID).
			Int("variants", len(result.Variants)).
			Msg("channel completed")

		r.emitProgress(&opts, ProgressEvent{
			RunID:       opts.RunID.String(),
			ChannelID:   channel.ID,
			ChannelName: channel.Name,
			Completed:   i + 1,
			Total:       len(opts.Channels),
		}, log)
	}

	r.recordSuccess(ctx, opts.RunID, results, log)
	return results, nil
}

func (r *Runner) runChannel(ctx context.Context, opts RunOptions, channel types.Channel) (types.ChannelResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ChannelResult{}, err
	}

	prompt, err := r.composer.Compose(types.GenerationRequest{
		Product:      opts.Product,
		Channel:      channel,
		Tone:         opts.Tone,
		Occasion:     opts.Occasion,
		VariantCount: opts.VariantCount,
		Direction:    opts.Direction,
		Model:        opts.Model,
	})
	if err != nil {
		return types.ChannelResult{}, err
	}

	callCtx := ctx
	if opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
		defer cancel()
	}

	raw, err := llm.GenerateVariants(callCtx, r.client, llm.Request{
		System:          prompt.System,
		User:            prompt.User,
		Model:           opts.Model,
		MaxOutputTokens: opts.MaxOutputTokens,
	})
	if err != nil {
		return types.ChannelResult{}, err
	}

	return types.ChannelResult{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		Variants:    Enrich(raw, opts.Product.Category, r.evaluator),
	}, nil
}

// Enrich evaluates each raw variant against the category rules
func Enrich(raw []types.RawVariant, category string, evaluator *compliance.Evaluator) []types.ContentVariant {
	variants := make([]types.ContentVariant, 0, len(raw))
	for _, v := range raw {
		issues, verdict := evaluator.Check(v.ComplianceText(), category)

		hashtags := make([]string, len(v.Hashtags))
		copy(hashtags, v.Hashtags)

		variants = append(variants, types.ContentVariant{
			Label:           v.Label,
			Headline:        v.Headline,
			Body:            v.Body,
			CallToAction:    v.CTA,
			Hashtags:        hashtags,
			ComplianceNotes: v.ComplianceNotes,
			Issues:          issues,
			Verdict:         verdict,
		})
	}
	return variants
}

// emitProgress calls the progress callback if configured. A panicking
// callback is logged and does not abort the run.
func (r *Runner) emitProgress(opts *RunOptions, event ProgressEvent, log zerolog.Logger) {
	if opts.OnProgress == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Interface("panic", rec).Msg("progress callback failed")
		}
	}()
	opts.OnProgress(event)
}

func (r *Runner) recordStart(ctx context.Context, opts RunOptions, log zerolog.Logger) {
	if r.recorder == nil {
		return
	}

	channelIDs := make([]string, 0, len(opts.Channels))
	for _, ch := range opts.Channels {
		channelIDs = append(channelIDs, ch.ID)
	}

	run := &types.Run{
		ID:           opts.RunID,
		ProductID:    opts.Product.ID,
		ProductName:  opts.Product.Name,
		Category:     opts.Product.Category,
		Brand:        opts.Product.Brand,
		ChannelIDs:   channelIDs,
		Tone:         opts.Tone,
		Occasion:     opts.Occasion,
		VariantCount: opts.VariantCount,
		Direction:    opts.Direction,
		Model:        opts.Model,
		Status:       types.RunStatusRunning,
	}
	if err := r.recorder.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record run start")
	}
}

func (r *Runner) recordSuccess(ctx context.Context, runID uuid.UUID, results []types.ChannelResult, log zerolog.Logger) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.CompleteRun(ctx, runID, results); err != nil {
		log.Warn().Err(err).Msg("failed to record run results")
	}
}

func (r *Runner) recordFailure(ctx context.Context, runID uuid.UUID, runErr error, log zerolog.Logger) {
	if r.recorder == nil {
		return
	}
	// the run context may already be done; failure must still be recorded
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.recorder.FailRun(recordCtx, runID, runErr.Error()); err != nil {
		log.Warn().Err(err).Msg("failed to record run failure")
	}
}
