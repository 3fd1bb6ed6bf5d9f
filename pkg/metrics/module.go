package metrics

import "github.com/toyz/keel/pkg/keel"

// DefaultPath is where the metrics endpoint is mounted
const DefaultPath = "/metrics"

// Options configures Module
type Options struct {
	// Namespace prefixes every metric name (default: keel)
	Namespace string
	// Path of the scrape endpoint (default: /metrics)
	Path string
}

// Module returns a keel module exporting a *Collector. Its middleware applies
// to every route of the application, and the scrape endpoint is named "metrics".
func Module(opts Options) *keel.Module {
	if opts.Namespace == "" {
		opts.Namespace = "keel"
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	collector := NewCollector(opts.Namespace)

	router := keel.NewRouter("", keel.WithName("metrics"))
	router.Get(opts.Path, collector.Handler(), keel.Named("metrics"))

	return keel.NewModule("metrics",
		keel.Providers(keel.Value(collector).Exported()),
		keel.Middleware(collector.Middleware()),
		keel.Routers(router),
	)
}
