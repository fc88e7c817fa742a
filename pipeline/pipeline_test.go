package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/storerank/core"
)

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func dropFirst(calls *int) Node {
	return NodeFunc{NodeName: "drop_first", NodeKind: KindFilter, Fn: func(_ context.Context, _ *core.RecommendContext, in []*core.Item) ([]*core.Item, error) {
		*calls++
		if len(in) == 0 {
			return in, nil
		}
		return in[1:], nil
	}}
}

func TestPipeline_Run(t *testing.T) {
	boom := errors.New("boom")
	failing := NodeFunc{NodeName: "failing", NodeKind: KindReRank, Fn: func(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
		return nil, boom
	}}

	tests := []struct {
		name      string
		input     []string
		nodes     func(calls *int) []Node
		wantLen   int
		wantCalls int
		wantErr   error
	}{
		{
			name:      "nodes run in order",
			input:     []string{"a", "b", "c"},
			nodes:     func(c *int) []Node { return []Node{dropFirst(c), dropFirst(c)} },
			wantLen:   1,
			wantCalls: 2,
		},
		{
			name:      "stops once empty",
			input:     []string{"a"},
			nodes:     func(c *int) []Node { return []Node{dropFirst(c), dropFirst(c), failing} },
			wantLen:   0,
			wantCalls: 1,
		},
		{
			name:      "error aborts",
			input:     []string{"a", "b"},
			nodes:     func(c *int) []Node { return []Node{failing, dropFirst(c)} },
			wantErr:   boom,
			wantCalls: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			p := &Pipeline{Nodes: tt.nodes(&calls)}
			got, err := p.Run(context.Background(), &core.RecommendContext{}, items(tt.input...))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if tt.wantErr == nil && len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	p := &Pipeline{Nodes: []Node{dropFirst(&calls)}}
	if _, err := p.Run(ctx, nil, items("a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
