package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/worker"
)

// URLReplacer swaps a raw upload URL for its optimized one on a listing.
type URLReplacer interface {
	ReplaceMediaURL(ctx context.Context, id primitive.ObjectID, from, to string) error
}

type Job struct {
	PropertyID primitive.ObjectID
	URLs       []string
}

type Pipeline struct {
	Pool      *worker.Pool
	Uploads   *Uploads
	Optimizer *Optimizer
	Store     URLReplacer
	// Parallel bounds how many files of one job are processed at once.
	Parallel int
	// OnComplete runs after a job that replaced at least one URL.
	OnComplete func(ctx context.Context, id primitive.ObjectID)
	Logger     *zap.Logger
}

// Enqueue schedules optimization of the job's files and returns at once.
func (p *Pipeline) Enqueue(job Job) error {
	if len(job.URLs) == 0 {
		return nil
	}
	return p.Pool.Submit(worker.Job{
		Name: "optimize-media:" + job.PropertyID.Hex(),
		Run:  func(ctx context.Context) error { return p.Process(ctx, job) },
	})
}

// Process optimizes every file of job. A failing file keeps its raw URL and
// does not stop the others.
func (p *Pipeline) Process(ctx context.Context, job Job) error {
	limit := p.Parallel
	if limit <= 0 {
		limit = 2
	}

	var g errgroup.Group
	g.SetLimit(limit)

	var replaced atomic.Int32
	errs := make([]error, len(job.URLs))
	for i, url := range job.URLs {
		g.Go(func() error {
			ok, err := p.processFile(ctx, job.PropertyID, url)
			if ok {
				replaced.Add(1)
			}
			errs[i] = err
			return nil
		})
	}
	g.Wait()

	if replaced.Load() > 0 && p.OnComplete != nil {
		p.OnComplete(ctx, job.PropertyID)
	}
	p.Logger.Info("media optimized",
		zap.String("property", job.PropertyID.Hex()),
		zap.Int("files", len(job.URLs)),
		zap.Int32("replaced", replaced.Load()),
	)
	return errors.Join(errs...)
}

func (p *Pipeline) processFile(ctx context.Context, id primitive.ObjectID, url string) (bool, error) {
	src, ok := p.Uploads.Path(url)
	if !ok {
		return false, fmt.Errorf("not an upload url: %q", url)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dst, err := p.Optimizer.Optimize(ctx, src)
	if err != nil {
		p.Logger.Warn("keeping original media", zap.String("file", url), zap.Error(err))
		return false, err
	}
	if dst == src {
		return false, nil
	}

	optimized := URLPrefix + filepath.Base(dst)
	if err := p.Store.ReplaceMediaURL(ctx, id, url, optimized); err != nil {
		// The listing still points at the raw file, so only the artefact goes.
		p.Uploads.Remove([]string{optimized})
		if errors.Is(err, store.ErrNotFound) {
			// The listing was deleted or edited while we worked.
			return false, nil
		}
		return false, fmt.Errorf("replacing %s: %w", url, err)
	}
	p.Uploads.Remove([]string{url})
	return true, nil
}
