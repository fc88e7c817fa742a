package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/storerank/core"
)

// 本地 1 号端口没有服务，用来验证连接失败统一映射为 UNAVAILABLE。
const deadAddr = "127.0.0.1:1"

func deadClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        deadAddr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestDialRedis_Unavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := DialRedis(ctx, deadAddr, "", 0)
	if err == nil {
		_ = client.Close()
		t.Fatal("expected error")
	}
	if !core.IsUnavailable(err) {
		t.Errorf("err = %v, want UNAVAILABLE", err)
	}
}

func TestRedisTrending_Unavailable(t *testing.T) {
	client := deadClient()
	defer client.Close()
	rt := NewRedisTrending(client, "")
	if rt.key != "trending:products" {
		t.Errorf("default key = %q", rt.key)
	}
	ctx := context.Background()

	if _, err := rt.TopTrending(ctx, 5); !core.IsUnavailable(err) {
		t.Errorf("TopTrending err = %v, want UNAVAILABLE", err)
	}
	if err := rt.BumpTrending(ctx, "p1", 1); !core.IsUnavailable(err) {
		t.Errorf("BumpTrending err = %v, want UNAVAILABLE", err)
	}
}
