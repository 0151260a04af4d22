package metrics

import (
	"testing"

	"github.com/MelomanCat/getaround-project/core/factory"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
)

func TestBuiltinSinks(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	multi, ok := s.(*coremetrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if _, ok := multi.Sinks[0].(*PromSink); !ok {
		t.Fatalf("expected PromSink first, got %T", multi.Sinks[0])
	}

	s, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "influx", Conf: map[string]any{"url": "http://127.0.0.1:1", "bucket": "b"}}})
	if err != nil {
		t.Fatalf("create influx: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback for unreachable influx, got %T", s)
	}
}
