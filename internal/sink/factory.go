package sink

import (
	"context"
	"fmt"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

// NewSinkFromConfig creates a Sink based on the output config type.
// outputRoot is the destination directory for the filesystem sink; the s3
// sink places objects under its configured prefix instead.
func NewSinkFromConfig(ctx context.Context, cfg config.OutputConfig, outputRoot string) (hr.Sink, error) {
	switch cfg.Type {
	case "filesystem", "":
		if outputRoot == "" {
			return nil, fmt.Errorf("%w: filesystem output requires an output directory", hr.ErrConfiguration)
		}
		return NewFileSystemSink(outputRoot)
	case "s3":
		return NewS3Sink(ctx, cfg)
	case "memory":
		return NewMemorySink("output"), nil
	default:
		return nil, fmt.Errorf("%w: unknown output type %q", hr.ErrConfiguration, cfg.Type)
	}
}
