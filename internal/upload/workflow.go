// Package upload drives the dataset upload modal: stage a file, upload it,
// pick a cluster count, run clustering and then hand over to the segments
// view. Every transition is guarded by the current phase, and results of
// calls started before a Close are dropped.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/logger"
	"github.com/zulandar/segdash/internal/models"
)

// Phase is the position of the workflow in the upload pipeline.
type Phase int

const (
	Idle Phase = iota
	Uploading
	Uploaded
	Clustering
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case Clustering:
		return "clustering"
	case Done:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Cluster count bounds.
const (
	MinClusters     = 2
	MaxClusters     = 10
	DefaultClusters = 5
)

// SegmentsRoute is where a finished workflow navigates.
const SegmentsRoute = "/segments"

var (
	// ErrBusy is returned when a call of the same kind is already in flight.
	ErrBusy = errors.New("upload: request already in progress")
	// ErrInvalidPhase is returned when an action is not allowed in the current phase.
	ErrInvalidPhase = errors.New("upload: action not allowed in current phase")
	// ErrNoFile is returned by StartUpload when no file is staged.
	ErrNoFile = errors.New("upload: no file selected")
	// ErrClosed is returned when the workflow was closed while the call was in flight.
	ErrClosed = errors.New("upload: workflow closed")
)

// Service is the part of the API client the workflow calls.
type Service interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (*models.UploadResponse, error)
	Cluster(ctx context.Context, parquetPath string, numClusters int) (*models.ClusterResponse, error)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configures a Workflow.
type Options struct {
	Service         Service
	Navigator       Navigator
	RedirectDelay   time.Duration // default 1.5s
	DefaultClusters int           // default 5
	Logger          *zap.Logger
	Clock           Clock
}

// State is an immutable snapshot of the workflow.
type State struct {
	Phase        Phase
	File         *File
	Result       *models.UploadResponse
	Cluster      *models.ClusterResponse
	ClusterCount int
	Err          error
	Generation   uint64
}

// Busy reports whether a request is in flight; submit controls are disabled.
func (s State) Busy() bool {
	return s.Phase == Uploading || s.Phase == Clustering
}

// Workflow is one open upload modal.
type Workflow struct {
	svc      Service
	nav      Navigator
	delay    time.Duration
	clusters int
	clock    Clock
	log      *zap.Logger

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	redirect Timer

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New creates an idle Workflow.
func New(opts Options) (*Workflow, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("upload: service is required")
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = 1500 * time.Millisecond
	}
	if opts.DefaultClusters < MinClusters || opts.DefaultClusters > MaxClusters {
		opts.DefaultClusters = DefaultClusters
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Navigator == nil {
		opts.Navigator = NavigatorFunc(func(string) {})
	}
	w := &Workflow{
		svc:      opts.Service,
		nav:      opts.Navigator,
		delay:    opts.RedirectDelay,
		clusters: opts.DefaultClusters,
		clock:    opts.Clock,
		log:      logger.OrNop(opts.Logger).Named("upload"),
		subs:     make(map[int]chan State),
	}
	w.state = State{Phase: Idle, ClusterCount: w.clusters}
	return w, nil
}

// Snapshot returns the current state.
func (w *Workflow) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Select stages a file. An invalid file is rejected and any previously
// staged file is dropped.
func (w *Workflow) Select(f File) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Phase != Idle {
		return fmt.Errorf("%w: select while %s", ErrInvalidPhase, w.state.Phase)
	}
	if err := Validate(f); err != nil {
		w.state.File = nil
		w.state.Err = err
		w.publishLocked()
		return err
	}
	staged := f
	w.state.File = &staged
	w.state.Err = nil
	w.publishLocked()
	return nil
}

// StartUpload uploads the staged file and blocks until the call settles. On
// failure the workflow returns to Idle with the file still staged.
func (w *Workflow) StartUpload(ctx context.Context) (*models.UploadResponse, error) {
	w.mu.Lock()
	switch {
	case w.state.Phase == Uploading:
		w.mu.Unlock()
		return nil, ErrBusy
	case w.state.Phase != Idle:
		phase := w.state.Phase
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: upload while %s", ErrInvalidPhase, phase)
	case w.state.File == nil:
		w.mu.Unlock()
		return nil, ErrNoFile
	}
	file := *w.state.File
	gen := w.state.Generation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.cancel = cancel
	w.state.Phase = Uploading
	w.state.Err = nil
	w.publishLocked()
	w.mu.Unlock()

	w.log.Info("uploading", zap.String("file", file.Name), zap.Int64("size", file.Size))
	res, err := w.upload(ctx, file)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Generation != gen {
		w.log.Debug("dropping upload result after close", zap.String("file", file.Name))
		return nil, ErrClosed
	}
	w.cancel = nil
	if err != nil {
		w.state.Phase = Idle
		w.state.Err = err
		w.publishLocked()
		w.log.Warn("upload failed", zap.String("file", file.Name), zap.Error(err))
		return nil, err
	}
	w.state.Phase = Uploaded
	w.state.Result = res
	w.publishLocked()
	w.log.Info("uploaded", zap.String("file", res.FileName), zap.Int("records", res.RecordsImported))
	return res, nil
}

func (w *Workflow) upload(ctx context.Context, f File) (*models.UploadResponse, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("upload: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	res, err := w.svc.Upload(ctx, f.Name, f.ContentType, rc)
	if err != nil {
		return nil, err
	}
	if res == nil || res.ParquetPath == "" {
		return nil, fmt.Errorf("upload: %s: response has no parquet path", f.Name)
	}
	return res, nil
}

// SetClusterCount sets the number of clusters to request. Values outside
// [MinClusters, MaxClusters] are rejected and the count is left unchanged.
func (w *Workflow) SetClusterCount(n int) error {
	if n < MinClusters || n > MaxClusters {
		return &ValidationError{
			Field:   "numClusters",
			Message: fmt.Sprintf("must be between %d and %d", MinClusters, MaxClusters),
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Phase == Clustering || w.state.Phase == Done {
		return fmt.Errorf("%w: set cluster count while %s", ErrInvalidPhase, w.state.Phase)
	}
	w.state.ClusterCount = n
	w.publishLocked()
	return nil
}

// StartClustering clusters the uploaded file and blocks until the call
// settles. On success the workflow is Done and, after the redirect delay,
// closes itself and navigates to the segments view. On failure it returns to
// Uploaded so the user can retry.
func (w *Workflow) StartClustering(ctx context.Context) (*models.ClusterResponse, error) {
	w.mu.Lock()
	switch w.state.Phase {
	case Clustering:
		w.mu.Unlock()
		return nil, ErrBusy
	case Uploaded:
	default:
		phase := w.state.Phase
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: cluster while %s", ErrInvalidPhase, phase)
	}
	parquet := w.state.Result.ParquetPath
	n := w.state.ClusterCount
	gen := w.state.Generation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.cancel = cancel
	w.state.Phase = Clustering
	w.state.Err = nil
	w.publishLocked()
	w.mu.Unlock()

	w.log.Info("clustering", zap.String("parquet", parquet), zap.Int("clusters", n))
	res, err := w.svc.Cluster(ctx, parquet, n)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Generation != gen {
		w.log.Debug("dropping clustering result after close")
		return nil, ErrClosed
	}
	w.cancel = nil
	if err != nil {
		w.state.Phase = Uploaded
		w.state.Err = err
		w.publishLocked()
		w.log.Warn("clustering failed", zap.Error(err))
		return nil, err
	}
	w.state.Phase = Done
	w.state.Cluster = res
	w.publishLocked()
	w.redirect = w.clock.AfterFunc(w.delay, func() { w.finish(gen) })
	return res, nil
}

// finish closes a Done workflow and navigates to the segments view, unless
// the workflow was closed in the meantime.
func (w *Workflow) finish(gen uint64) {
	w.mu.Lock()
	if w.state.Generation != gen || w.state.Phase != Done {
		w.mu.Unlock()
		return
	}
	w.redirect = nil
	w.resetLocked()
	w.mu.Unlock()
	w.nav.Navigate(SegmentsRoute)
}

// Close resets the workflow. It is allowed in every phase; an in-flight call
// is cancelled and its result discarded.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
	w.resetLocked()
}

func (w *Workflow) resetLocked() {
	w.state = State{
		Phase:        Idle,
		ClusterCount: w.clusters,
		Generation:   w.state.Generation + 1,
	}
	w.publishLocked()
}

// Subscribe returns a channel receiving state changes and an unsubscribe
// function. Only the latest undelivered state is kept.
func (w *Workflow) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	w.subMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.subMu.Lock()
			delete(w.subs, id)
			w.subMu.Unlock()
			close(ch)
		})
	}
}

func (w *Workflow) publishLocked() {
	st := w.state
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
