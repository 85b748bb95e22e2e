package convert

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/packforge/modelpack/model"
)

// Convert runs the whole pipeline over a parsed document and returns the
// finished model. The call is synchronous: it either returns a complete,
// immutable Model or the first fatal error encountered. Node, mesh, and
// material arrays are built deterministically in depth-first pre-order;
// texture processing may fan out across workers but each image lands in the
// slot reserved for it during traversal, so output is deterministic
// regardless of scheduling.
//
// Parameters:
//   - doc: the parsed source document
//   - opts: the conversion configuration
//
// Returns:
//   - *model.Model: the packed model
//   - error: the first fatal condition, classifiable with errors.Is against
//     this package's sentinel errors
func Convert(doc *Document, opts Options) (*model.Model, error) {
	// Reject unusable compression configurations before any image work.
	switch opts.TextureCompression {
	case CompressionNone:
	case CompressionBC:
		if opts.BlockCompressor == nil {
			return nil, ErrNoBlockCompressor
		}
	default:
		return nil, fmt.Errorf("%w: family %d", ErrUnsupportedCompression, opts.TextureCompression)
	}

	b := newBuilder(doc, opts)

	if err := b.flattenScene(); err != nil {
		return nil, err
	}
	if err := b.runTextureJobs(); err != nil {
		return nil, err
	}

	return b.finish(), nil
}

// runTextureJobs executes the per-image pipeline work queued during
// traversal. With more than one configured worker the jobs fan out to a
// bounded pool; each job writes only its own pre-reserved texture slot, so
// no synchronization beyond the completion barrier is needed.
func (b *builder) runTextureJobs() error {
	if len(b.textureJobs) == 0 {
		return nil
	}

	if b.opts.TextureWorkers <= 1 || len(b.textureJobs) == 1 {
		for _, job := range b.textureJobs {
			tex, err := b.processTextureJob(job)
			if err != nil {
				return err
			}
			b.textures[job.slot] = tex
		}
		return nil
	}

	pool := worker.NewDynamicWorkerPool(b.opts.TextureWorkers, len(b.textureJobs), 1*time.Second)

	// A WaitGroup provides the completion barrier; pool.Wait() blocks until
	// workers idle-exit, which is unsuitable for one-shot batch work.
	var wg sync.WaitGroup
	errs := make([]error, len(b.textureJobs))
	for i, job := range b.textureJobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				tex, err := b.processTextureJob(job)
				if err != nil {
					errs[i] = err
					return nil, err
				}
				b.textures[job.slot] = tex
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
