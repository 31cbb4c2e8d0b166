// Package orchestrator drives the two-phase batch pipeline: gather one
// analyzed article per category, then compose, upload and dispatch a post
// for every gathered article.
package orchestrator

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsposter/internal/analyze"
	"newsposter/internal/config"
	"newsposter/internal/feed"
	"newsposter/internal/statuslog"
	"newsposter/internal/task"
	"newsposter/internal/webhook"
)

// Collaborator contracts. The production implementations live in
// internal/feed, internal/analyze, internal/media, internal/compose and
// internal/webhook; tests inject fakes.
type (
	Feed interface {
		Fetch(ctx context.Context, category string) ([]feed.Article, error)
	}
	Selector interface {
		Select(ctx context.Context, articles []feed.Article) (*analyze.Selection, error)
	}
	ImageLoader interface {
		Load(ctx context.Context, url string) (image.Image, error)
	}
	ImageGenerator interface {
		Generate(ctx context.Context, prompt string) (image.Image, error)
	}
	Composer interface {
		Compose(src image.Image, headline string, highlights []string) ([]byte, error)
	}
	Uploader interface {
		Upload(ctx context.Context, encoded []byte) (string, error)
	}
	Notifier interface {
		Dispatch(ctx context.Context, p webhook.Payload) error
	}
)

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Feed      Feed
	Selector  Selector
	Loader    ImageLoader
	Generator ImageGenerator
	Composer  Composer
	Uploader  Uploader
	Notifier  Notifier
	Log       *statuslog.Log
}

const trendingLimit = 10

// Orchestrator owns the batch run lifecycle. One batch runs at a time;
// task state is only written by the run goroutine's sequential steps.
type Orchestrator struct {
	deps       Deps
	categories []config.Category
	delay      time.Duration
	tracer     trace.Tracer

	mu      sync.Mutex
	running bool
	batchID string
	board   *task.Board
}

func New(deps Deps, categories []config.Category, delay time.Duration) *Orchestrator {
	return &Orchestrator{
		deps:       deps,
		categories: categories,
		delay:      delay,
		tracer:     otel.Tracer("newsposter/orchestrator"),
	}
}

// bundle is the phase-1 to phase-2 handoff: at most one per task.
type bundle struct {
	taskID    string
	selection analyze.Selection
}

// State is a read-only snapshot for renderers.
type State struct {
	Running   bool        `json:"running"`
	BatchID   string      `json:"batch_id,omitempty"`
	Completed int         `json:"completed"`
	Tasks     []task.Task `json:"tasks"`
}

// TryStart begins a new batch unless one is already running. The previous
// batch's tasks are replaced wholesale. Returns the new batch id.
func (o *Orchestrator) TryStart() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return "", false
	}
	o.running = true
	o.batchID = uuid.NewString()
	o.board = task.NewBoard(boardCategories(o.categories))

	// A started batch always runs to completion; it is deliberately not
	// tied to the lifetime of the triggering request.
	go o.run(context.Background(), o.board, o.batchID)
	return o.batchID, true
}

// Running reports whether a batch is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// State returns a snapshot of the current (or last) batch.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	running, batchID, board := o.running, o.batchID, o.board
	o.mu.Unlock()

	s := State{Running: running, BatchID: batchID}
	if board != nil {
		s.Tasks = board.Snapshot()
		s.Completed = board.CompletedCount()
	}
	return s
}

func (o *Orchestrator) run(ctx context.Context, board *task.Board, batchID string) {
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	ctx, span := o.tracer.Start(ctx, "batch.run",
		trace.WithAttributes(attribute.String("batch.id", batchID)))
	defer span.End()

	o.deps.Log.Info("", "batch started", statuslog.Detail{
		"batch_id":   batchID,
		"categories": len(o.categories),
	})

	bundles := o.gatherPhase(ctx, board)
	o.processPhase(ctx, board, bundles)

	o.deps.Log.Success("", "batch finished", statuslog.Detail{
		"completed": board.CompletedCount(),
		"total":     len(o.categories),
	})
}

// gatherPhase runs phase 1 sequentially over the configured categories,
// claiming one article link per successful category.
func (o *Orchestrator) gatherPhase(ctx context.Context, board *task.Board) []bundle {
	o.deps.Log.Info("", "gather phase started", nil)
	used := make(map[string]struct{})
	bundles := make([]bundle, 0, len(o.categories))
	for i, cat := range o.categories {
		if i > 0 && o.delay > 0 {
			time.Sleep(o.delay)
		}
		if b, ok := o.gatherCategory(ctx, board, cat, used); ok {
			bundles = append(bundles, b)
		}
	}
	return bundles
}

func (o *Orchestrator) gatherCategory(ctx context.Context, board *task.Board, cat config.Category, used map[string]struct{}) (bundle, bool) {
	ctx, span := o.tracer.Start(ctx, "batch.gather",
		trace.WithAttributes(attribute.String("category", cat.ID)))
	defer span.End()

	_ = board.SetStatus(cat.ID, task.StatusGathering)
	o.deps.Log.Info(cat.ID, "gathering articles", nil)

	var (
		articles []feed.Article
		err      error
	)
	if cat.Aggregate {
		articles, err = o.fetchAggregate(ctx, cat)
	} else {
		articles, err = o.deps.Feed.Fetch(ctx, cat.ID)
	}
	if err != nil {
		o.failTask(board, cat.ID, fmt.Sprintf("article fetch failed: %v", err))
		return bundle{}, false
	}

	eligible := filterUsed(articles, used)
	if len(eligible) == 0 {
		o.failTask(board, cat.ID, "no new articles for category")
		return bundle{}, false
	}

	sel, err := o.deps.Selector.Select(ctx, eligible)
	if err != nil {
		o.failTask(board, cat.ID, fmt.Sprintf("analysis failed: %v", err))
		return bundle{}, false
	}
	if sel == nil {
		o.failTask(board, cat.ID, fmt.Sprintf("no relevant article among %d candidates", len(eligible)))
		return bundle{}, false
	}

	used[sel.Article.Link] = struct{}{}
	_ = board.SetStatus(cat.ID, task.StatusGathered)
	o.deps.Log.Success(cat.ID, "article gathered", statuslog.Detail{
		"headline": sel.Analysis.Headline,
		"link":     sel.Article.Link,
	})
	return bundle{taskID: cat.ID, selection: *sel}, true
}

// fetchAggregate fans out a concurrent fetch per non-aggregate category,
// joins them all, then merges the results into a trending list.
func (o *Orchestrator) fetchAggregate(ctx context.Context, agg config.Category) ([]feed.Article, error) {
	others := make([]config.Category, 0, len(o.categories))
	for _, c := range o.categories {
		if c.ID != agg.ID {
			others = append(others, c)
		}
	}

	groups := make([][]feed.Article, len(others))
	var wg sync.WaitGroup
	for i, cat := range others {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			articles, err := o.deps.Feed.Fetch(ctx, id)
			if err != nil {
				o.deps.Log.Error(agg.ID, fmt.Sprintf("sub-fetch for %s failed: %v", id, err), nil)
				return
			}
			groups[slot] = articles
		}(i, cat.ID)
	}
	wg.Wait()

	merged := mergeTrending(groups)
	if len(merged) == 0 {
		return nil, fmt.Errorf("no articles gathered from any category")
	}
	return merged, nil
}

// mergeTrending flattens the per-category results, de-duplicates by link
// (last seen wins), sorts by publish date descending with undated entries
// treated as equal, and keeps the top entries.
func mergeTrending(groups [][]feed.Article) []feed.Article {
	var flat []feed.Article
	for _, g := range groups {
		flat = append(flat, g...)
	}

	index := make(map[string]int, len(flat))
	merged := make([]feed.Article, 0, len(flat))
	for _, a := range flat {
		if at, seen := index[a.Link]; seen {
			// Last seen wins for the data, but it keeps the first
			// occurrence's slot, so undated duplicates hold the first
			// occurrence's relative order through the stable sort.
			merged[at] = a
			continue
		}
		index[a.Link] = len(merged)
		merged = append(merged, a)
	}

	sortByDateDesc(merged)
	if len(merged) > trendingLimit {
		merged = merged[:trendingLimit]
	}
	return merged
}

func filterUsed(articles []feed.Article, used map[string]struct{}) []feed.Article {
	out := make([]feed.Article, 0, len(articles))
	for _, a := range articles {
		if _, claimed := used[a.Link]; claimed {
			continue
		}
		out = append(out, a)
	}
	return out
}

// processPhase runs phase 2 over the gathered bundles in gather order.
func (o *Orchestrator) processPhase(ctx context.Context, board *task.Board, bundles []bundle) {
	o.deps.Log.Info("", "process phase started", statuslog.Detail{"bundles": len(bundles)})
	for _, b := range bundles {
		o.processBundle(ctx, board, b)
	}
}

func (o *Orchestrator) processBundle(ctx context.Context, board *task.Board, b bundle) {
	ctx, span := o.tracer.Start(ctx, "batch.process",
		trace.WithAttributes(attribute.String("category", b.taskID)))
	defer span.End()

	id := b.taskID
	analysis := b.selection.Analysis
	article := b.selection.Article

	_ = board.SetStatus(id, task.StatusProcessing)
	o.deps.Log.Info(id, "processing article", statuslog.Detail{"headline": analysis.Headline})

	img, err := o.deps.Loader.Load(ctx, article.ImageURL)
	if err != nil {
		o.deps.Log.Info(id, fmt.Sprintf("article image unavailable, generating fallback: %v", err), nil)
		_ = board.SetStatus(id, task.StatusGeneratingImage)
		img, err = o.deps.Generator.Generate(ctx, analysis.ImagePrompt)
		if err != nil {
			// The fallback failing is the severe condition: the task has no
			// usable image at all.
			o.failTask(board, id, fmt.Sprintf("critical: fallback image generation failed: %v", err))
			return
		}
	}

	_ = board.SetStatus(id, task.StatusComposing)
	encoded, err := o.deps.Composer.Compose(img, analysis.Headline, analysis.Highlights)
	if err != nil {
		o.failTask(board, id, fmt.Sprintf("composition failed: %v", err))
		return
	}

	_ = board.SetStatus(id, task.StatusUploading)
	hostedURL, err := o.deps.Uploader.Upload(ctx, encoded)
	if err != nil {
		o.failTask(board, id, fmt.Sprintf("upload failed: %v", err))
		return
	}

	_ = board.SetStatus(id, task.StatusSendingWebhook)
	err = o.deps.Notifier.Dispatch(ctx, webhook.Payload{
		Headline:  analysis.Headline,
		ImageURL:  hostedURL,
		Caption:   analysis.Caption,
		SourceURL: article.Link,
		Status:    webhook.StatusReadyToPost,
	})
	if err != nil {
		o.failTask(board, id, fmt.Sprintf("webhook dispatch failed: %v", err))
		return
	}

	_ = board.Complete(id, task.Result{
		Headline:   analysis.Headline,
		ImageURL:   hostedURL,
		Caption:    analysis.Caption,
		SourceURL:  article.Link,
		SourceName: analysis.SourceName,
	})
	o.deps.Log.Success(id, "post published", statuslog.Detail{"image_url": hostedURL})
}

// failTask records a task-scoped failure; the batch carries on.
func (o *Orchestrator) failTask(board *task.Board, id, msg string) {
	_ = board.Fail(id, msg)
	o.deps.Log.Error(id, msg, nil)
}

func boardCategories(categories []config.Category) []task.Category {
	out := make([]task.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, task.Category{ID: c.ID, Name: c.Name})
	}
	return out
}
