package frame

import "context"

type pipelineConfig struct {
	frameCount int
	ctx        context.Context
}

// FramePipelineBuilderOption is a functional option applied to a FramePipeline during construction.
type FramePipelineBuilderOption func(*pipelineConfig)

// WithFrameCount sets how many frames may be in flight. Only 2 and 3 are accepted.
//
// Parameters:
//   - n: the frame count
//
// Returns:
//   - FramePipelineBuilderOption: a function that applies the frame count
func WithFrameCount(n int) FramePipelineBuilderOption {
	return func(c *pipelineConfig) {
		c.frameCount = n
	}
}

// WithContext sets the context WaitForIdle and Resize give up on at shutdown.
func WithContext(ctx context.Context) FramePipelineBuilderOption {
	return func(c *pipelineConfig) {
		c.ctx = ctx
	}
}
