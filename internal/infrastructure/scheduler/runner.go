package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"signalist/internal/application/jobs"
)

// JobSource 提供排程工作與執行入口。
type JobSource interface {
	Jobs() []jobs.Job
	Run(ctx context.Context, name string) (jobs.Result, error)
}

// Entry 已排入的工作。
type Entry struct {
	Name     string
	Schedule string
	Next     time.Time
}

// Runner 以 UTC 五欄 cron 觸發工作；同一工作上一輪未結束時略過本輪。
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
	entries map[string]cron.EntryID
	specs   map[string]string
}

// New 建立 Runner，工作以 baseCtx 執行。
func New(baseCtx context.Context, logger *zap.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{s: logger.Sugar()}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
		entries: make(map[string]cron.EntryID),
		specs:   make(map[string]string),
	}
}

// Add 以名稱排入一個工作。
func (r *Runner) Add(name, spec string, job func(context.Context)) error {
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("schedule %s already added", name)
	}
	id, err := r.cron.AddFunc(spec, func() { job(r.baseCtx) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	r.entries[name] = id
	r.specs[name] = spec
	return nil
}

// AddJobs 排入 source 的所有工作；執行錯誤已由 source 記錄。
func (r *Runner) AddJobs(source JobSource) error {
	for _, j := range source.Jobs() {
		name := j.Name
		if err := r.Add(name, j.Schedule, func(ctx context.Context) {
			_, _ = source.Run(ctx, name)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Entries 依名稱列出已排入的工作與下次執行時間。
func (r *Runner) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for name, id := range r.entries {
		e := r.cron.Entry(id)
		next := e.Next
		if next.IsZero() && e.Schedule != nil {
			next = e.Schedule.Next(time.Now().UTC())
		}
		out = append(out, Entry{Name: name, Schedule: r.specs[name], Next: next})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("jobs", len(r.entries)))
	r.cron.Start()
}

// Stop 停止排程並等待執行中的工作結束。
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// Next 計算 spec 在 after 之後的下一次觸發時間（UTC）。
func Next(spec string, after time.Time) (time.Time, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(after.UTC()), nil
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
