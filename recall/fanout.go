package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/storerank/core"
)

// Fanout 并发执行多个召回源，按 Sources 的顺序返回各自的候选列表。
// 默认任一来源出错即整体失败；IgnoreErrors 为 true 时出错的来源返回空列表。
type Fanout struct {
	Sources      []Source
	Timeout      time.Duration // 每个召回源的超时时间
	IgnoreErrors bool

	// Observe 在每个来源返回后回调，可为空（用于指标）
	Observe func(source Source, err error, d time.Duration)
}

// Recall 不会合并结果，合并交给 rerank.Blend。
func (n *Fanout) Recall(ctx context.Context, rctx *core.RecommendContext) ([]core.CandidateList, error) {
	out := make([]core.CandidateList, len(n.Sources))
	if len(n.Sources) == 0 {
		return out, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range n.Sources {
		i, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			began := time.Now()
			list, err := s.Recall(recallCtx, rctx)
			if n.Observe != nil {
				n.Observe(s, err, time.Since(began))
			}
			if err != nil {
				if n.IgnoreErrors {
					out[i] = core.CandidateList{Items: []*core.Item{}}
					return nil
				}
				return err
			}
			out[i] = list
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
