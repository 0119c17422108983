package infer

import (
	"context"
	"time"
)

// Transport is one way of reaching the model host. Two implementations
// exist: the HTTP API and the spawned CLI process. Both address the
// same local runtime.
type Transport interface {
	Name() string
	// Healthy is the cheap availability probe, bounded by the
	// transport's probe timeout rather than the generation timeout.
	Healthy(ctx context.Context) bool
	Generate(ctx context.Context, model, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Transport names used by the registry and error reporting.
const (
	TransportAPI     = "api"
	TransportProcess = "process"
)

// TransportFactory builds a Transport from the shared config.
type TransportFactory func(TransportConfig) Transport

// TransportConfig carries the knobs both transports understand.
type TransportConfig struct {
	// Host of the HTTP API, e.g. http://localhost:11434.
	Host string
	// Binary name for the process transport.
	Binary string
	// GenTimeout bounds one generation call.
	GenTimeout time.Duration
	// ProbeTimeout bounds the health probe.
	ProbeTimeout time.Duration
}

var transports = map[string]TransportFactory{}

// RegisterTransport registers a transport name with its factory.
func RegisterTransport(name string, f TransportFactory) { transports[name] = f }

// GetTransport creates a Transport for the given name if registered.
func GetTransport(name string, cfg TransportConfig) (Transport, bool) {
	if f, ok := transports[name]; ok {
		return f(cfg), true
	}
	return nil, false
}

func init() {
	RegisterTransport(TransportAPI, func(c TransportConfig) Transport {
		return newAPITransport(c.Host, c.GenTimeout, c.ProbeTimeout)
	})
	RegisterTransport(TransportProcess, func(c TransportConfig) Transport {
		return newProcTransport(c.Binary, c.GenTimeout, c.ProbeTimeout)
	})
}
