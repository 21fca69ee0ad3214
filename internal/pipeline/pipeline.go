// Package pipeline runs one inference cycle: standardize, encode, invoke,
// decode, decide. All state lives in an InferenceContext built once at startup.
// Package pipeline 执行单个推理周期：标准化、编码、调用、解码、判定。
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/livp123/firesense/internal/bridge"
	"github.com/livp123/firesense/internal/engine"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/utils/logger"
	fserrors "github.com/livp123/firesense/pkg/errors"
)

// DefaultThreshold is the reference fire decision threshold.
const DefaultThreshold = 0.45

// Options are the immutable startup parameters of an InferenceContext.
// Options 是 InferenceContext 的不可变启动参数。
type Options struct {
	Calibration   normalizer.Calibration
	Threshold     float64
	ArenaSize     int
	InvokeRetries int
}

// DefaultOptions returns the reference configuration.
// DefaultOptions 返回参考配置。
func DefaultOptions() Options {
	return Options{
		Calibration: normalizer.DefaultCalibration(),
		Threshold:   DefaultThreshold,
		ArenaSize:   engine.DefaultArenaSize,
	}
}

// Validate rejects options that must stop startup.
// Validate 拒绝必须终止启动的选项。
func (o Options) Validate() error {
	if err := o.Calibration.Validate(); err != nil {
		return err
	}
	if !bridge.ValidThreshold(o.Threshold) {
		return fmt.Errorf("%w: %w: %v must be in (0, 1)", fserrors.ErrConfiguration, fserrors.ErrThresholdInvalid, o.Threshold)
	}
	if o.ArenaSize <= 0 {
		return fserrors.NewConfigError("engine.arena_size", o.ArenaSize)
	}
	if o.InvokeRetries < 0 {
		return fserrors.NewConfigError("pipeline.invoke_retries", o.InvokeRetries)
	}
	return nil
}

// Result is the outcome of one cycle. When Infer returns an error the
// Result still carries the inputs but Output is nil and Verdict is zero.
// Result 是单个周期的结果；出错时 Output 为 nil 且不包含判定。
type Result struct {
	Raw          normalizer.FeatureVector
	Standardized normalizer.StandardizedVector
	Quantized    []int8
	Output       []int8
	Verdict      bridge.Verdict
	// Saturated counts encoded features that hit the int8 bounds.
	Saturated int
	// Clamped is set when the dequantized probability fell outside [0, 1].
	Clamped  bool
	Attempts int
	Duration time.Duration
}

// OK reports whether the cycle produced a decision.
func (r *Result) OK() bool { return r != nil && r.Output != nil }

// InferenceContext owns the engine, its arena and every parameter an
// inference cycle needs. Cycles are serialized.
// InferenceContext 持有引擎、arena 及推理周期所需的全部参数，周期串行执行。
type InferenceContext struct {
	mu     sync.Mutex
	opts   Options
	engine engine.Engine
	handle engine.ModelHandle
	in     bridge.Params
	out    bridge.Params
}

// NewInferenceContext validates opts, loads the model into eng and
// allocates its tensors. Every error is a configuration error.
// NewInferenceContext 验证参数、加载模型并分配张量，所有错误均为配置错误。
func NewInferenceContext(opts Options, eng engine.Engine, modelData []byte) (*InferenceContext, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, fserrors.NewConfigError("engine", "nil")
	}

	h, err := eng.LoadModel(modelData)
	if err != nil {
		return nil, asConfiguration(err)
	}
	if h.InputSize() != normalizer.NumFeatures {
		return nil, fserrors.NewModelError(fmt.Sprintf("model takes %d inputs, pipeline provides %d", h.InputSize(), normalizer.NumFeatures))
	}
	if h.OutputSize() < 1 {
		return nil, fserrors.NewModelError("model has no outputs")
	}

	in, out, err := eng.Allocate(h, opts.ArenaSize)
	if err != nil {
		return nil, asConfiguration(err)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("input quantization: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("output quantization: %w", err)
	}

	return &InferenceContext{
		opts:   opts,
		engine: eng,
		handle: h,
		in:     in,
		out:    out,
	}, nil
}

func asConfiguration(err error) error {
	if fserrors.IsConfiguration(err) {
		return err
	}
	return fmt.Errorf("%w: %w", fserrors.ErrConfiguration, err)
}

// Options returns the startup options.
func (c *InferenceContext) Options() Options { return c.opts }

// InputParams returns the input tensor quantization.
func (c *InferenceContext) InputParams() bridge.Params { return c.in }

// OutputParams returns the output tensor quantization.
func (c *InferenceContext) OutputParams() bridge.Params { return c.out }

// Model returns the handle of the loaded model.
func (c *InferenceContext) Model() engine.ModelHandle { return c.handle }

// Infer runs one cycle on a raw reading. An engine failure returns an
// InvocationError and the output is never decoded. Non-finite readings are
// rejected with ErrInvalidReading before the engine is touched.
// Infer 对原始读数执行单个周期；引擎失败时返回调用错误且不解码输出。
func (c *InferenceContext) Infer(ctx context.Context, raw normalizer.FeatureVector) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res := &Result{Raw: raw}
	if !raw.Finite() {
		return res, fmt.Errorf("%w: non-finite reading %v", fserrors.ErrInvalidReading, raw)
	}

	res.Standardized = normalizer.Standardize(raw, c.opts.Calibration)
	res.Quantized = make([]int8, normalizer.NumFeatures)
	res.Saturated = bridge.EncodeInto(res.Quantized, res.Standardized[:], c.in)

	out, err := c.invoke(ctx, res)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	p := bridge.Dequantize(out[0], c.out)
	clamped := bridge.ClampProbability(p)
	res.Output = out
	res.Clamped = clamped != p
	res.Verdict = bridge.Evaluate(clamped, c.opts.Threshold)

	logger.Get(ctx).Debugf("[INFER] q=%v out=%v p=%.4f decision=%s", res.Quantized, out, clamped, res.Verdict.Decision)
	return res, nil
}

func (c *InferenceContext) invoke(ctx context.Context, res *Result) ([]int8, error) {
	log := logger.Get(ctx)
	var lastErr error
	for attempt := 0; attempt <= c.opts.InvokeRetries; attempt++ {
		res.Attempts = attempt + 1
		out, err := c.engine.Invoke(ctx, res.Quantized)
		if err == nil {
			if len(out) < 1 {
				lastErr = fserrors.NewInvokeError(fmt.Errorf("engine returned an empty output"))
				continue
			}
			return out, nil
		}
		if !fserrors.IsInvocation(err) {
			err = fserrors.NewInvokeError(err)
		}
		lastErr = err
		if ctx != nil && ctx.Err() != nil {
			break
		}
		if attempt < c.opts.InvokeRetries {
			log.Warnf("[WARN]  Invoke attempt %d failed, retrying: %v", attempt+1, err)
		}
	}
	return nil, lastErr
}
