package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrJobNotFound 找不到指定名稱的工作。
var ErrJobNotFound = errors.New("job not found")

// Func 工作本體，回傳各項計數。
type Func func(ctx context.Context) (map[string]int, error)

// Job 具名且綁定排程的工作。
type Job struct {
	Name     string
	Schedule string // UTC，標準五欄 cron
	Run      Func
}

// Result 一次執行的結果。
type Result struct {
	Job       string
	Counts    map[string]int
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder 記錄工作執行指標。
type Recorder interface {
	ObserveJob(name string, err error, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveJob(string, error, time.Duration) {}

// Registry 管理所有排程工作。
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]Job
	recorder Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewRegistry 建立工作註冊表。
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		jobs:     make(map[string]Job),
		recorder: nopRecorder{},
		logger:   logger,
		tracer:   otel.Tracer("signalist/jobs"),
		now:      time.Now,
	}
}

// WithRecorder 設定指標記錄器。
func (r *Registry) WithRecorder(rec Recorder) *Registry {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// Register 新增工作，名稱不可重複。
func (r *Registry) Register(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: run func is required", job.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.Name]; ok {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	r.jobs[job.Name] = job
	return nil
}

// Jobs 依名稱排序列出工作。
func (r *Registry) Jobs() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Get 依名稱取得工作。
func (r *Registry) Get(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[name]
	return j, ok
}

// Run 立即執行指定工作。
func (r *Registry) Run(ctx context.Context, name string) (Result, error) {
	job, ok := r.Get(name)
	if !ok {
		return Result{Job: name}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	ctx, span := r.tracer.Start(ctx, "jobs."+name, trace.WithAttributes(attribute.String("job.name", name)))
	defer span.End()

	start := r.now()
	r.logger.Info("job started", zap.String("job", name))
	counts, err := job.Run(ctx)
	res := Result{Job: name, Counts: counts, StartedAt: start.UTC(), Duration: r.now().Sub(start)}
	r.recorder.ObserveJob(name, err, res.Duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("job failed", zap.String("job", name), zap.Duration("duration", res.Duration), zap.Error(err))
		return res, fmt.Errorf("run job %s: %w", name, err)
	}
	fields := []zap.Field{zap.String("job", name), zap.Duration("duration", res.Duration)}
	for k, v := range counts {
		fields = append(fields, zap.Int(k, v))
	}
	r.logger.Info("job finished", fields...)
	return res, nil
}
