package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/llm"
	"github.com/jonathan/campaign-copy/internal/prompting"
	"github.com/jonathan/campaign-copy/internal/reference"
	"github.com/jonathan/campaign-copy/internal/types"
)

type reply struct {
	text  string
	err   error
	block bool // wait for the context to end
}

type fakeClient struct {
	mu       sync.Mutex
	replies  []reply
	requests []llm.Request
}

func (f *fakeClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	idx := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if idx >= len(f.replies) {
		return "", fmt.Errorf("unexpected call %d", idx+1)
	}
	r := f.replies[idx]
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func (f *fakeClient) Provider() llm.Provider { return llm.ProviderOpenAI }

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeRecorder struct {
	created   []*types.Run
	completed map[uuid.UUID][]types.ChannelResult
	failed    map[uuid.UUID]string
	err       error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		completed: map[uuid.UUID][]types.ChannelResult{},
		failed:    map[uuid.UUID]string{},
	}
}

func (f *fakeRecorder) CreateRun(ctx context.Context, run *types.Run) error {
	f.created = append(f.created, run)
	return f.err
}

func (f *fakeRecorder) CompleteRun(ctx context.Context, runID uuid.UUID, results []types.ChannelResult) error {
	f.completed[runID] = results
	return f.err
}

func (f *fakeRecorder) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	f.failed[runID] = message
	return f.err
}

func variantsReply(label, headline, body, cta string) string {
	return fmt.Sprintf(`{"variants":[{"label":%q,"headline":%q,"body":%q,"cta":%q,"hashtags":["spring"],"complianceNotes":"checked"}]}`,
		label, headline, body, cta)
}

type fixture struct {
	lib    *reference.Library
	client *fakeClient
	runner *Runner
}

func newFixture(t *testing.T, replies ...reply) *fixture {
	t.Helper()
	lib, err := reference.Load()
	require.NoError(t, err)

	catalog := compliance.MustLoad()
	client := &fakeClient{replies: replies}
	runner := New(client, prompting.NewComposer(lib, catalog), compliance.NewEvaluator(catalog), zerolog.Nop())
	return &fixture{lib: lib, client: client, runner: runner}
}

func (f *fixture) options(t *testing.T, productID string, channelIDs ...string) RunOptions {
	t.Helper()
	product, err := f.lib.Product(productID)
	require.NoError(t, err)
	channels, err := f.lib.ChannelsByID(channelIDs)
	require.NoError(t, err)
	return RunOptions{
		Product:      product,
		Channels:     channels,
		Tone:         "Professional",
		Occasion:     "Spring Launch",
		VariantCount: 1,
	}
}

func TestRun_PreservesChannelOrder(t *testing.T) {
	f := newFixture(t,
		reply{text: variantsReply("A", "one", "first", "go")},
		reply{text: variantsReply("A", "two", "second", "go")},
		reply{text: variantsReply("A", "three", "third", "go")},
	)

	results, err := f.runner.Run(context.Background(), f.options(t, "p2", "sms", "email", "twitter"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "sms", results[0].ChannelID)
	assert.Equal(t, "email", results[1].ChannelID)
	assert.Equal(t, "twitter", results[2].ChannelID)
	assert.Equal(t, "one", results[0].Variants[0].Headline)
	assert.Equal(t, "three", results[2].Variants[0].Headline)

	require.Equal(t, 3, f.client.calls())
	assert.Contains(t, f.client.requests[0].User, "CHANNEL: SMS/WhatsApp")
	assert.Contains(t, f.client.requests[1].User, "CHANNEL: Email Campaign")
	assert.Contains(t, f.client.requests[2].User, "CHANNEL: X/Twitter Post")
}

func TestRun_EnrichesVariants(t *testing.T) {
	f := newFixture(t, reply{text: variantsReply("Bold", "Spring clean", "Our spray is 100% safe and kills 99% of germs.", "Buy now")})

	results, err := f.runner.Run(context.Background(), f.options(t, "p3", "instagram"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Variants, 1)

	v := results[0].Variants[0]
	assert.Equal(t, "Bold", v.Label)
	assert.Equal(t, "Buy now", v.CallToAction)
	assert.Equal(t, []string{"spring"}, v.Hashtags)
	assert.Equal(t, "checked", v.ComplianceNotes)
	assert.Equal(t, types.VerdictNeedsReview, v.Verdict)

	var rules []string
	for _, issue := range v.Issues {
		rules = append(rules, issue.RuleName)
	}
	assert.Contains(t, rules, "No absolute safety claims")
	assert.Contains(t, rules, "Efficacy claims need qualification")
}

func TestRun_CleanCopyIsCompliant(t *testing.T) {
	f := newFixture(t, reply{text: variantsReply("Calm", "Morning ritual", "Smooth flavor for focused mornings.", "Brew yours")})

	results, err := f.runner.Run(context.Background(), f.options(t, "p4", "email"))
	require.NoError(t, err)

	v := results[0].Variants[0]
	assert.Empty(t, v.Issues)
	assert.NotNil(t, v.Issues)
	assert.Equal(t, types.VerdictCompliant, v.Verdict)
}

func TestRun_Deterministic(t *testing.T) {
	body := "Guaranteed glow that helps maintain radiance."
	first := newFixture(t, reply{text: variantsReply("A", "Glow", body, "Shop")})
	second := newFixture(t, reply{text: variantsReply("A", "Glow", body, "Shop")})

	a, err := first.runner.Run(context.Background(), first.options(t, "p1", "facebook"))
	require.NoError(t, err)
	b, err := second.runner.Run(context.Background(), second.options(t, "p1", "facebook"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRun_ProtocolErrorAbortsRun(t *testing.T) {
	f := newFixture(t,
		reply{text: variantsReply("A", "fine", "fine", "go")},
		reply{text: "not json"},
		reply{text: variantsReply("A", "never", "never", "go")},
	)

	var events []ProgressEvent
	opts := f.options(t, "p2", "sms", "email", "twitter")
	opts.OnProgress = func(e ProgressEvent) { events = append(events, e) }

	results, err := f.runner.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Nil(t, results)

	var protocolErr *llm.ProtocolError
	assert.True(t, errors.As(err, &protocolErr))

	var chErr *ChannelError
	require.True(t, errors.As(err, &chErr))
	assert.Equal(t, "email", chErr.ChannelID)
	assert.Contains(t, err.Error(), "Email Campaign")

	assert.Equal(t, 2, f.client.calls(), "run stops at the failing channel")
	assert.Len(t, events, 1)
}

func TestRun_TransportError(t *testing.T) {
	f := newFixture(t, reply{err: errors.New("connection reset")})

	_, err := f.runner.Run(context.Background(), f.options(t, "p1", "sms"))
	require.Error(t, err)

	var transportErr *llm.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.Timeout)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRun_CallTimeout(t *testing.T) {
	f := newFixture(t, reply{block: true})

	opts := f.options(t, "p1", "sms", "email")
	opts.CallTimeout = 20 * time.Millisecond

	start := time.Now()
	results, err := f.runner.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Less(t, time.Since(start), 2*time.Second)

	var transportErr *llm.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout)
	assert.Equal(t, 1, f.client.calls())
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.Run(ctx, f.options(t, "p1", "sms"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.client.calls())
}

func TestRun_ValidationBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunOptions)
		field  string
	}{
		{name: "empty channels", mutate: func(o *RunOptions) { o.Channels = nil }, field: "channels"},
		{name: "zero variants", mutate: func(o *RunOptions) { o.VariantCount = 0 }, field: "variant_count"},
		{name: "too many variants", mutate: func(o *RunOptions) { o.VariantCount = MaxVariants + 1 }, field: "variant_count"},
		{name: "missing product", mutate: func(o *RunOptions) { o.Product = types.Product{} }, field: "product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := newFakeRecorder()
			runner := f.runner.WithRecorder(rec)

			opts := f.options(t, "p1", "sms")
			tt.mutate(&opts)

			_, err := runner.Run(context.Background(), opts)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Equal(t, 0, f.client.calls())
			assert.Empty(t, rec.created)
		})
	}
}

func TestRun_ConfigurationErrorFromComposer(t *testing.T) {
	f := newFixture(t)

	opts := f.options(t, "p1", "sms")
	opts.Product.Brand = "Unknown Brand"

	_, err := f.runner.Run(context.Background(), opts)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 0, f.client.calls())
}

func TestRun_ProgressFractions(t *testing.T) {
	f := newFixture(t,
		reply{text: variantsReply("A", "h", "b", "c")},
		reply{text: variantsReply("A", "h", "b", "c")},
		reply{text: variantsReply("A", "h", "b", "c")},
		reply{text: variantsReply("A", "h", "b", "c")},
	)

	var fractions []float64
	opts := f.options(t, "p5", "sms", "email", "twitter", "print_ad")
	opts.RunID = uuid.New()
	opts.OnProgress = func(e ProgressEvent) {
		assert.Equal(t, opts.RunID.String(), e.RunID)
		fractions = append(fractions, e.Fraction())
	}

	_, err := f.runner.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, fractions)
}

func TestRun_PanickingProgressCallback(t *testing.T) {
	f := newFixture(t,
		reply{text: variantsReply("A", "h", "b", "c")},
		reply{text: variantsReply("A", "h", "b", "c")},
	)

	calls := 0
	opts := f.options(t, "p1", "sms", "email")
	opts.OnProgress = func(e ProgressEvent) {
		calls++
		panic("display went away")
	}

	results, err := f.runner.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, calls)
}

func TestRun_PassesModelAndTokens(t *testing.T) {
	f := newFixture(t, reply{text: variantsReply("A", "h", "b", "c")})

	opts := f.options(t, "p1", "sms")
	opts.Model = "gpt-4o"
	opts.MaxOutputTokens = 800
	opts.VariantCount = 3

	_, err := f.runner.Run(context.Background(), opts)
	require.NoError(t, err)

	req := f.client.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 800, req.MaxOutputTokens)
	assert.Contains(t, req.User, "Create 3 distinct")
	assert.True(t, strings.Contains(req.System, "PureGlow Naturals"))
}

func TestRun_RecordsRuns(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, reply{text: variantsReply("A", "h", "b", "c")})
		rec := newFakeRecorder()

		opts := f.options(t, "p1", "sms")
		opts.RunID = uuid.New()
		results, err := f.runner.WithRecorder(rec).Run(context.Background(), opts)
		require.NoError(t, err)

		require.Len(t, rec.created, 1)
		assert.Equal(t, opts.RunID, rec.created[0].ID)
		assert.Equal(t, opts.Product.Brand, rec.created[0].Brand)
		assert.Equal(t, []string{"sms"}, rec.created[0].ChannelIDs)
		assert.Equal(t, types.RunStatusRunning, rec.created[0].Status)
		assert.Equal(t, results, rec.completed[opts.RunID])
		assert.Empty(t, rec.failed)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, reply{text: "not json"})
		rec := newFakeRecorder()

		opts := f.options(t, "p1", "sms")
		opts.RunID = uuid.New()
		_, err := f.runner.WithRecorder(rec).Run(context.Background(), opts)
		require.Error(t, err)

		assert.Empty(t, rec.completed)
		assert.Contains(t, rec.failed[opts.RunID], "SMS/WhatsApp")
	})

	t.Run("recorder errors do not fail the run", func(t *testing.T) {
		f := newFixture(t, reply{text: variantsReply("A", "h", "b", "c")})
		rec := newFakeRecorder()
		rec.err = errors.New("database is down")

		results, err := f.runner.WithRecorder(rec).Run(context.Background(), f.options(t, "p1", "sms"))
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestProgressEvent_Fraction(t *testing.T) {
	assert.Equal(t, 0.0, ProgressEvent{}.Fraction())
	assert.Equal(t, 0.5, ProgressEvent{Completed: 1, Total: 2}.Fraction())
}
