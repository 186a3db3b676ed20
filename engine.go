package ticketeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucas-stellet/ticketeta/compose"
	"github.com/lucas-stellet/ticketeta/embed"
)

var tracer = otel.Tracer("github.com/lucas-stellet/ticketeta")

// NoMatchOutcome selects what Estimate returns when no tier qualifies.
type NoMatchOutcome string

const (
	// NoMatchDefault answers with the 24 hour default estimate (valid).
	NoMatchDefault NoMatchOutcome = "default"
	// NoMatchInvalid rejects the ticket as too vague (valid=false) and asks
	// the customer for more detail.
	NoMatchInvalid NoMatchOutcome = "invalid"
)

// Descriptions longer than SummaryThreshold are summarized before indexing;
// without a summarizer they are cut to SummaryFallbackLength.
const (
	SummaryThreshold      = 1500
	SummaryFallbackLength = 1000
)

// EngineConfig configures the Engine. Every index is optional; tiers whose
// index is nil are skipped.
type EngineConfig struct {
	ActiveIndex   VectorIndex         // active tickets, estimated_resolution_time
	HistoricIndex VectorIndex         // resolved tickets, actual_resolution_time
	TextIndex     TextIndex           // hybrid, text and global tiers
	Cache         Cache               // nil disables caching
	IDSource      TicketLister        // nil = TextIndex when it can list
	EmbedFunc     embed.EmbeddingFunc // nil = no vector tiers can answer
	Compose       compose.Func        // nil = compose.Template()
	Summarize     compose.SummarizeFunc

	VectorPolicy       Policy   // location-filtered vector tiers (default HighConfidence)
	GlobalVectorPolicy Policy   // unfiltered vector tiers (default MediumConfidence)
	TextPolicy         Policy   // default TextRelevance
	VectorFields       []string // embedding field candidates for hybrid search
	SearchLimit        int      // candidates per backend (default 15)
	NoMatch            NoMatchOutcome

	CacheTTL       time.Duration // default 1h
	EmbedTimeout   time.Duration // default 10s
	BackendTimeout time.Duration // default 10s
	CacheTimeout   time.Duration // default 2s
	ComposeTimeout time.Duration // default 20s

	Logger *slog.Logger // nil = slog.Default()
}

type tier struct {
	method     Method
	backend    Backend
	policy     Policy
	unfiltered bool // search every location
	timeFields []string
}

// Engine estimates resolution times by walking the fallback tiers in order.
// It is safe for concurrent use.
type Engine struct {
	cfg     EngineConfig
	tiers   []tier
	hybrid  *TextBackend
	cache   *ResultCache
	ids     *IDAllocator
	embedFn embed.EmbeddingFunc
	compose compose.Func
	log     *slog.Logger
	now     func() time.Time
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	switch cfg.NoMatch {
	case "":
		cfg.NoMatch = NoMatchDefault
	case NoMatchDefault, NoMatchInvalid:
	default:
		return nil, fmt.Errorf("unknown no-match outcome %q", cfg.NoMatch)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.VectorPolicy == (Policy{}) {
		cfg.VectorPolicy = HighConfidence
	}
	if cfg.GlobalVectorPolicy == (Policy{}) {
		cfg.GlobalVectorPolicy = MediumConfidence
	}
	if cfg.TextPolicy == (Policy{}) {
		cfg.TextPolicy = TextRelevance
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.EmbedTimeout == 0 {
		cfg.EmbedTimeout = 10 * time.Second
	}
	if cfg.BackendTimeout == 0 {
		cfg.BackendTimeout = 10 * time.Second
	}
	if cfg.CacheTimeout == 0 {
		cfg.CacheTimeout = 2 * time.Second
	}
	if cfg.ComposeTimeout == 0 {
		cfg.ComposeTimeout = 20 * time.Second
	}
	if cfg.Compose == nil {
		cfg.Compose = compose.Template()
	}

	e := &Engine{
		cfg:     cfg,
		cache:   NewResultCache(cfg.Cache, cfg.CacheTTL, cfg.CacheTimeout, cfg.Logger),
		compose: cfg.Compose,
		log:     cfg.Logger,
		now:     time.Now,
	}

	if cfg.EmbedFunc != nil {
		e.embedFn = func(ctx context.Context, text string) ([]float32, error) {
			ctx, cancel := withTimeout(ctx, cfg.EmbedTimeout)
			defer cancel()
			return cfg.EmbedFunc(ctx, embed.TextForTicket(text))
		}
	}

	idSource := cfg.IDSource
	if idSource == nil {
		idSource, _ = cfg.TextIndex.(TicketLister)
	}
	e.ids = NewIDAllocator(idSource, cfg.BackendTimeout, cfg.Logger)

	e.buildTiers()
	return e, nil
}

// buildTiers lays out the fallback chain: both vector stores at the
// submission's location under the strict policy, then both again across all
// locations under the relaxed policy, then the text index tiers.
func (e *Engine) buildTiers() {
	cfg := e.cfg
	activeFields := []string{FieldEstimatedTime}
	historicFields := []string{FieldActualTime, FieldEstimatedTime}

	var active, historic *VectorStore
	if cfg.ActiveIndex != nil {
		active = NewVectorStore("active", cfg.ActiveIndex)
		e.tiers = append(e.tiers, tier{method: MethodActiveVector, backend: active, policy: cfg.VectorPolicy, timeFields: activeFields})
	}
	if cfg.HistoricIndex != nil {
		historic = NewVectorStore("historic", cfg.HistoricIndex)
		e.tiers = append(e.tiers, tier{method: MethodHistoricVector, backend: historic, policy: cfg.VectorPolicy, timeFields: historicFields})
	}
	if active != nil {
		e.tiers = append(e.tiers, tier{method: MethodActiveVectorGlobal, backend: active, policy: cfg.GlobalVectorPolicy, unfiltered: true, timeFields: activeFields})
	}
	if historic != nil {
		e.tiers = append(e.tiers, tier{method: MethodHistoricVectorGlobal, backend: historic, policy: cfg.GlobalVectorPolicy, unfiltered: true, timeFields: historicFields})
	}

	if cfg.TextIndex != nil {
		textFields := []string{FieldEstimatedTime, FieldActualTime}
		e.hybrid = NewTextBackend("hybrid", TextModeHybrid, cfg.TextIndex, cfg.VectorFields)
		e.hybrid.probeTimeout = cfg.BackendTimeout
		e.tiers = append(e.tiers,
			tier{method: MethodHybridSearch, backend: e.hybrid, policy: cfg.TextPolicy, timeFields: textFields},
			tier{method: MethodTextSearch, backend: NewTextBackend("text", TextModeText, cfg.TextIndex, nil), policy: cfg.TextPolicy, timeFields: textFields},
			tier{method: MethodGlobalSearch, backend: NewTextBackend("global", TextModeUnfiltered, cfg.TextIndex, nil), policy: cfg.TextPolicy, timeFields: textFields},
		)
	}
}

// Estimate validates the submission and returns its resolution estimate with
// a composed notification. Only *ValidationError and context errors are
// returned; every backend, cache or composer failure degrades gracefully.
func (e *Engine) Estimate(ctx context.Context, sub Submission) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ticketeta.Estimate",
		trace.WithAttributes(attribute.Int("ticketeta.location_id", sub.LocationID)))
	defer span.End()

	if err := Validate(sub.Description); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	key := CacheKey(sub.Description, sub.LocationID)
	if r, ok := e.cache.Get(ctx, key); ok {
		r.Cached = true
		span.SetAttributes(attribute.Bool("ticketeta.cached", true), attribute.String("ticketeta.method", string(r.Method)))
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := e.ids.Next(ctx)
	loc := sub.LocationID
	q := NewQuery(sub.Description, &loc, e.cfg.SearchLimit, e.embedFn)

	r, err := e.search(ctx, q)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.TicketID = id.TicketID
	r.CustomerID = id.CustomerID
	r.LocationID = sub.LocationID
	r.CreatedAt = e.now().UTC()
	r.Notification = e.notify(ctx, sub, r)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.cache.Put(ctx, key, r)

	span.SetAttributes(
		attribute.String("ticketeta.method", string(r.Method)),
		attribute.Int("ticketeta.match_count", r.MatchCount),
		attribute.Int("ticketeta.estimated_hours", r.EstimatedHours),
	)
	return r, nil
}

// search walks the tiers and builds the result from the first that qualifies.
func (e *Engine) search(ctx context.Context, q *Query) (*Result, error) {
	for _, t := range e.tiers {
		out := e.runTier(ctx, t, q)
		if out.err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if out.estimate.Qualified {
			e.log.Info("tier qualified",
				"tier", t.method,
				"matches", out.estimate.Count,
				"hours", out.estimate.Hours,
				"confidence", out.estimate.Confidence)
			return resultFrom(t.method, out.estimate), nil
		}
	}
	return e.noMatch(), nil
}

type tierOutcome struct {
	matches  []ScoredMatch
	policy   Policy
	estimate Estimate
	err      error
}

// runTier searches one tier's backend and evaluates its policy.
// Backend failures are logged and reported as a non-qualifying outcome.
func (e *Engine) runTier(ctx context.Context, t tier, q *Query) tierOutcome {
	ctx, span := tracer.Start(ctx, "ticketeta.tier", trace.WithAttributes(
		attribute.String("ticketeta.tier", string(t.method)),
		attribute.String("ticketeta.backend", t.backend.Name()),
	))
	defer span.End()

	if t.unfiltered {
		q = q.Unfiltered()
	}
	sctx, cancel := withTimeout(ctx, e.cfg.BackendTimeout)
	matches, err := t.backend.Search(sctx, q)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			err = classify(t.backend.Name(), err)
			e.log.Warn("tier search failed", "tier", t.method, "backend", t.backend.Name(), "timeout", timedOut(err), "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return tierOutcome{policy: t.policy, err: err}
	}
	span.SetAttributes(attribute.Int("ticketeta.candidates", len(matches)))

	out := tierOutcome{
		matches:  matches,
		policy:   t.policy,
		estimate: Aggregate(matches, t.policy, t.timeFields...),
	}
	e.log.Debug("tier evaluated", "tier", t.method, "candidates", len(matches), "qualified", out.estimate.Qualified)
	return out
}

func resultFrom(m Method, est Estimate) *Result {
	conf := est.Confidence
	return &Result{
		EstimatedHours: est.Hours,
		Method:         m,
		Label:          m.Label(),
		Confidence:     &conf,
		MatchCount:     est.Count,
		Valid:          true,
	}
}

func (e *Engine) noMatch() *Result {
	return &Result{
		EstimatedHours: DefaultHours,
		Method:         MethodDefault,
		Label:          MethodDefault.Label(),
		Valid:          e.cfg.NoMatch != NoMatchInvalid,
	}
}

// notify composes the customer message, substituting the fixed template on
// failure.
func (e *Engine) notify(ctx context.Context, sub Submission, r *Result) string {
	if !r.Valid {
		return compose.NoMatchGuidance
	}

	cctx, cancel := withTimeout(ctx, e.cfg.ComposeTimeout)
	defer cancel()

	msg, err := e.compose(cctx, compose.Request{
		Description:    sub.Description,
		EstimatedHours: r.EstimatedHours,
		LocationID:     r.LocationID,
		Method:         r.Label,
	})
	if err != nil {
		e.log.Warn("compose notification failed", "error", fmt.Errorf("%w: %w", ErrNotification, err))
		return compose.Fallback(r.EstimatedHours)
	}
	return msg
}

// Record registers a ticket in the text index and the active vector index so
// later submissions can match it. Long descriptions are summarized first.
func (e *Engine) Record(ctx context.Context, rec TicketRecord) error {
	if utf8.RuneCountInString(rec.Description) > SummaryThreshold {
		rec.Description = e.summarize(ctx, rec.Description)
	}

	var vec []float32
	if e.embedFn != nil {
		v, err := e.embedFn(ctx, rec.Description)
		if err != nil {
			e.log.Warn("embed ticket for indexing failed", "ticket_id", rec.TicketID, "error", err)
		} else {
			vec = v
		}
	}

	var errs []error
	if e.cfg.TextIndex != nil {
		doc := Document{Candidate: rec.Candidate(), Vector: vec}
		if e.hybrid != nil {
			doc.VectorField = e.hybrid.vectorField(ctx)
		}
		if err := e.cfg.TextIndex.Upload(ctx, []Document{doc}); err != nil {
			errs = append(errs, fmt.Errorf("upload to text index: %w", err))
		}
	}
	if e.cfg.ActiveIndex != nil && len(vec) > 0 {
		if err := e.cfg.ActiveIndex.Upsert(ctx, []VectorRecord{{Candidate: rec.Candidate(), Vector: vec}}); err != nil {
			errs = append(errs, fmt.Errorf("upsert to active index: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Similar returns the text index's closest tickets to text using hybrid
// scoring, without estimating. A nil locationID searches every location.
func (e *Engine) Similar(ctx context.Context, text string, locationID *int, limit int) ([]ScoredMatch, error) {
	if e.hybrid == nil {
		return nil, errors.New("similar: no text index configured")
	}
	ctx, cancel := withTimeout(ctx, e.cfg.BackendTimeout)
	defer cancel()
	return e.hybrid.Search(ctx, NewQuery(text, locationID, limit, e.embedFn))
}

// ReindexResult summarizes a Reindex run.
type ReindexResult struct {
	Tickets  int `json:"tickets"`
	Embedded int `json:"embedded"`
	Failed   int `json:"failed"`
}

// Reindex re-embeds up to limit tickets from the text index and writes them
// back to the text index and the active vector index. Tickets whose
// embedding fails are counted and skipped.
func (e *Engine) Reindex(ctx context.Context, limit int) (ReindexResult, error) {
	var res ReindexResult
	lister, ok := e.cfg.TextIndex.(TicketLister)
	if !ok {
		return res, errors.New("reindex: text index cannot list tickets")
	}
	if e.embedFn == nil {
		return res, errors.New("reindex: no embedding provider configured")
	}

	tickets, err := lister.List(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("reindex: list tickets: %w", err)
	}
	res.Tickets = len(tickets)

	field := e.hybrid.vectorField(ctx)
	docs := make([]Document, 0, len(tickets))
	records := make([]VectorRecord, 0, len(tickets))
	for _, c := range tickets {
		vec, err := e.embedFn(ctx, c.Description)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.log.Warn("reindex: embed ticket failed", "ticket_id", c.TicketID, "error", err)
			res.Failed++
			continue
		}
		res.Embedded++
		docs = append(docs, Document{Candidate: c, Vector: vec, VectorField: field})
		records = append(records, VectorRecord{Candidate: c, Vector: vec})
	}

	if len(docs) > 0 {
		if err := e.cfg.TextIndex.Upload(ctx, docs); err != nil {
			return res, fmt.Errorf("reindex: upload: %w", err)
		}
	}
	if e.cfg.ActiveIndex != nil && len(records) > 0 {
		if err := e.cfg.ActiveIndex.Upsert(ctx, records); err != nil {
			return res, fmt.Errorf("reindex: upsert: %w", err)
		}
	}
	e.log.Info("reindex complete", "tickets", res.Tickets, "embedded", res.Embedded, "failed", res.Failed)
	return res, nil
}

func (e *Engine) summarize(ctx context.Context, text string) string {
	if e.cfg.Summarize != nil {
		cctx, cancel := withTimeout(ctx, e.cfg.ComposeTimeout)
		defer cancel()
		out, err := e.cfg.Summarize(cctx, text)
		if err == nil {
			return out
		}
		e.log.Warn("summarize description failed", "error", err)
	}
	return compose.Truncate(text, SummaryFallbackLength)
}

// BackendStatus reports one backing index.
type BackendStatus struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Stats reports every configured index. Unreachable indexes are reported as
// unhealthy rather than failing the call.
func (e *Engine) Stats(ctx context.Context) []BackendStatus {
	type named struct {
		name  string
		stats func(context.Context) (IndexStats, error)
	}
	var indexes []named
	if e.cfg.ActiveIndex != nil {
		indexes = append(indexes, named{"active", e.cfg.ActiveIndex.Stats})
	}
	if e.cfg.HistoricIndex != nil {
		indexes = append(indexes, named{"historic", e.cfg.HistoricIndex.Stats})
	}
	if e.cfg.TextIndex != nil {
		indexes = append(indexes, named{"text", e.cfg.TextIndex.Stats})
	}

	out := make([]BackendStatus, 0, len(indexes))
	for _, idx := range indexes {
		sctx, cancel := withTimeout(ctx, e.cfg.BackendTimeout)
		st, err := idx.stats(sctx)
		cancel()
		bs := BackendStatus{Name: idx.name, Count: st.Count, Healthy: err == nil && st.Healthy}
		if err != nil {
			bs.Error = err.Error()
		}
		out = append(out, bs)
	}
	return out
}

// Close releases every index and the cache.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range []interface{ Close() error }{e.cfg.ActiveIndex, e.cfg.HistoricIndex, e.cfg.TextIndex} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
