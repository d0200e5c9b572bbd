package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"3tcapital/facturas_sri/internal/core/invoice"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
)

// Ingester stores a single upload.
type Ingester interface {
	Ingest(ctx context.Context, up Upload) (*Result, error)
}

// BatchItem is the outcome of one file of a batch. Error is safe to show to
// the uploader; the raw error is only logged.
type BatchItem struct {
	Index    int     `json:"indice"`
	Filename string  `json:"archivo"`
	Result   *Result `json:"resultado,omitempty"`
	Error    string  `json:"error,omitempty"`

	// Err keeps the typed error for callers that map it to a status.
	Err error `json:"-"`
}

// BatchReport groups the per-file outcomes of a batch in submission order.
type BatchReport struct {
	BatchID    string        `json:"lote_id"`
	Items      []BatchItem   `json:"archivos"`
	Stored     int           `json:"almacenadas"`
	Duplicates int           `json:"duplicadas"`
	Failed     int           `json:"fallidas"`
	Duration   time.Duration `json:"-"`
}

type batchJob struct {
	upload Upload
	index  int
}

// BatchProcessor ingests several uploads concurrently with a bounded number
// of workers.
type BatchProcessor struct {
	ingester  Ingester
	workers   int
	queueSize int
	log       *slog.Logger
}

// NewBatchProcessor creates a batch processor. Values below one fall back to
// a single worker and an unbuffered queue.
func NewBatchProcessor(ingester Ingester, workers, queueSize int, log *slog.Logger) *BatchProcessor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &BatchProcessor{ingester: ingester, workers: workers, queueSize: queueSize, log: log}
}

// Process ingests uploads and returns one item per upload, in input order.
// Files left unprocessed when ctx is cancelled report the context error.
func (b *BatchProcessor) Process(ctx context.Context, uploads []Upload) *BatchReport {
	start := time.Now()
	report := &BatchReport{
		BatchID: uuid.NewString(),
		Items:   make([]BatchItem, len(uploads)),
	}
	for i, up := range uploads {
		report.Items[i] = BatchItem{Index: i, Filename: up.Filename}
	}

	log := b.log.With(
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"batch_id", report.BatchID,
		"files", len(uploads),
	)
	log.Info("Batch started", "workers", b.workers)

	pool := newWorkerPool(ctx, b.workers, b.queueSize, b.ingester)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, up := range uploads {
			if err := pool.Submit(batchJob{upload: up, index: i}); err != nil {
				return
			}
		}
	}()

	done := make([]bool, len(uploads))
	for item := range pool.Results() {
		report.Items[item.Index] = item
		done[item.Index] = true
	}

	for i := range report.Items {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			report.Items[i].Err = err
			report.Items[i].Error = clientMessage(err)
		}
		switch {
		case report.Items[i].Err != nil:
			report.Failed++
			log.Warn("Batch file failed", "index", i, "filename", report.Items[i].Filename, "error", report.Items[i].Err)
		case report.Items[i].Result != nil && report.Items[i].Result.Outcome == invoice.OutcomeDuplicate:
			report.Duplicates++
		default:
			report.Stored++
		}
	}

	report.Duration = time.Since(start)
	log.Info("Batch finished",
		"stored", report.Stored,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report
}

// workerPool fans jobs out to a fixed set of workers. Results is closed once
// every worker has returned.
type workerPool struct {
	workerCount int
	ingester    Ingester
	jobChan     chan batchJob
	resultChan  chan BatchItem
	wg          sync.WaitGroup
	ctx         context.Context
	closeOnce   sync.Once
}

func newWorkerPool(ctx context.Context, workerCount, queueSize int, ingester Ingester) *workerPool {
	return &workerPool{
		workerCount: workerCount,
		ingester:    ingester,
		jobChan:     make(chan batchJob, queueSize),
		resultChan:  make(chan BatchItem, workerCount),
		ctx:         ctx,
	}
}

// Start launches the workers.
func (p *workerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.resultChan)
	}()
}

// Close stops accepting jobs. Workers drain what was already queued.
func (p *workerPool) Close() {
	p.closeOnce.Do(func() { close(p.jobChan) })
}

// Submit queues a job, blocking while the queue is full.
func (p *workerPool) Submit(job batchJob) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

func (p *workerPool) Results() <-chan BatchItem {
	return p.resultChan
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobChan {
		if p.ctx.Err() != nil {
			// Leave the job unreported; Process marks it with the context error.
			continue
		}
		p.resultChan <- p.process(job)
	}
}

func (p *workerPool) process(job batchJob) (item BatchItem) {
	item = BatchItem{Index: job.index, Filename: job.upload.Filename}
	defer func() {
		if r := recover(); r != nil {
			item.Result = nil
			item.Err = fmt.Errorf("panic while processing file: %v", r)
			item.Error = clientMessage(item.Err)
		}
	}()

	res, err := p.ingester.Ingest(p.ctx, job.upload)
	if err != nil {
		item.Err = err
		item.Error = clientMessage(err)
		return item
	}
	item.Result = res
	return item
}

// clientMessage describes a failed file without backend or storage details.
// Only the detail of a rejected document is passed through.
func clientMessage(err error) string {
	var docErr *invoice.DocumentError
	switch {
	case errors.Is(err, invoice.ErrUnsupportedFormat):
		return "formato no soportado"
	case errors.Is(err, invoice.ErrInvalidDocument):
		if errors.As(err, &docErr) && docErr.Detail != "" {
			return "documento inválido: " + docErr.Detail
		}
		return "documento inválido"
	case errors.Is(err, invoice.ErrDuplicateDetected):
		return "factura duplicada"
	case errors.Is(err, context.DeadlineExceeded):
		return "tiempo de espera agotado"
	case errors.Is(err, context.Canceled):
		return "procesamiento cancelado"
	case errors.Is(err, invoice.ErrBackendUnavailable):
		return "servicio de reconocimiento no disponible"
	default:
		return "error interno"
	}
}
