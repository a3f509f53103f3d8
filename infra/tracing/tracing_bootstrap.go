package tracing

import (
	"clubhouse/common"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	jaegerlog "github.com/uber/jaeger-client-go/log"
	"github.com/uber/jaeger-lib/metrics"
)

// Bootstrap builds a jaeger tracer from the JAEGER_* environment variables
// and installs it as the opentracing global tracer.
func Bootstrap() (io.Closer, error) {
	cfg, err := jaegerconfig.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler = &jaegerconfig.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
	}

	tracer, closer, err := cfg.NewTracer(
		jaegerconfig.Logger(jaegerlog.NullLogger),
		jaegerconfig.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
