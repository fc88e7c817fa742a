// Package worker 承载订单完成、行为上报之类的后台副作用。
// 投递是尽力而为的：队列满时丢弃，失败只记日志与指标，从不回传给调用方。
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rushteam/storerank/metrics"
)

// TaskFunc 是一个后台任务，ctx 带有单任务超时。
type TaskFunc func(ctx context.Context) error

// Submitter 是投递后台任务的入口。返回 false 表示任务被丢弃。
type Submitter interface {
	Submit(kind string, fn TaskFunc) bool
}

// Options 是队列参数。
type Options struct {
	QueueSize   int           // 默认 1024
	Workers     int           // 默认 4
	TaskTimeout time.Duration // 默认 10s
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = 10 * time.Second
	}
	return o
}

type task struct {
	id   string
	kind string
	fn   TaskFunc
}

// Queue 是有界的内存任务队列，实现 suture.Service。
// Submit 永不阻塞；Serve 启动固定数量的 worker 消费队列。
// 进程退出时队列中尚未执行的任务会丢失。
type Queue struct {
	tasks   chan task
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New 创建队列。logger 与 m 均可为空。
func New(opts Options, logger *zap.Logger, m *metrics.Metrics) *Queue {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		tasks:   make(chan task, opts.QueueSize),
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

func (q *Queue) String() string { return "background-worker" }

// Pending 返回排队中的任务数。
func (q *Queue) Pending() int { return len(q.tasks) }

func (q *Queue) Submit(kind string, fn TaskFunc) bool {
	t := task{id: uuid.NewString(), kind: kind, fn: fn}
	select {
	case q.tasks <- t:
		return true
	default:
		q.logger.Warn("background queue full, task dropped",
			zap.String("task_id", t.id),
			zap.String("kind", kind),
			zap.Int("queue_size", q.opts.QueueSize),
		)
		q.metrics.TaskDone(kind, "dropped")
		return false
	}
}

// Serve 阻塞直到 ctx 取消，等待正在执行的任务结束后返回。
func (q *Queue) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < q.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-q.tasks:
					q.run(ctx, t)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (q *Queue) run(ctx context.Context, t task) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.opts.TaskTimeout)
	defer cancel()

	status := "ok"
	err := safeRun(taskCtx, t.fn)
	switch {
	case err == nil:
	case isPanic(err):
		status = "panic"
	default:
		status = "error"
	}
	if err != nil {
		q.logger.Warn("background task failed",
			zap.String("task_id", t.id),
			zap.String("kind", t.kind),
			zap.Error(err),
		)
	}
	q.metrics.TaskDone(t.kind, status)
}

type panicError struct {
	value any
}

func (p *panicError) Error() string { return fmt.Sprintf("task panic: %v", p.value) }

func isPanic(err error) bool {
	_, ok := err.(*panicError)
	return ok
}

func safeRun(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return fn(ctx)
}

// Inline 在调用方 goroutine 中同步执行任务，用于命令行一次性任务与测试。
// 失败同样只记日志。
type Inline struct {
	Logger  *zap.Logger
	Timeout time.Duration
}

func (s *Inline) Submit(kind string, fn TaskFunc) bool {
	ctx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := safeRun(ctx, fn); err != nil && s.Logger != nil {
		s.Logger.Warn("inline task failed", zap.String("kind", kind), zap.Error(err))
	}
	return true
}

var (
	_ Submitter = (*Queue)(nil)
	_ Submitter = (*Inline)(nil)
)
