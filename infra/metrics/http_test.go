package metrics

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/test/util"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestStartPromServer_ServesDefaultRegistry(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.RecordModelReload(coremetrics.ModelReloadEvent{ModelName: "http-test", Version: 2})

	ctx, cancel := context.WithCancel(context.Background())
	addr := freeAddr(t)
	done := make(chan error, 1)
	go func() { done <- StartPromServer(ctx, addr) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	if err := util.WaitForMetric(waitCtx, fmt.Sprintf("http://%s/metrics", addr), `getaround_model_version{model="http-test"} 2`); err != nil {
		t.Fatalf("wait for metric: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
