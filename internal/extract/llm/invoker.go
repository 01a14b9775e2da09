package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/prompts"
	"github.com/shipmentbot/server/internal/extract/trace"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// Invoker issues single calls to the text-generation service with retry on
// transient failures and optional tracing per extraction node.
type Invoker struct {
	models  *Models
	retry   retryPolicy
	sink    trace.Sink
	project string
}

// NewInvoker wires the chat models with the retry policy from cfg. sink may
// be nil when tracing is disabled.
func NewInvoker(models *Models, cfg model.LLMConfig, traceCfg model.TraceConfig, sink trace.Sink) (*Invoker, error) {
	base, err := time.ParseDuration(cfg.RetryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_RETRY_BASE_DELAY %q: %w", cfg.RetryBaseDelay, err)
	}
	cap, err := time.ParseDuration(cfg.RetryMaxDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_RETRY_MAX_DELAY %q: %w", cfg.RetryMaxDelay, err)
	}

	if !traceCfg.Enabled {
		sink = nil
	}
	return &Invoker{
		models:  models,
		retry:   newRetryPolicy(cfg.MaxAttempts, base, cap),
		sink:    sink,
		project: traceCfg.Project,
	}, nil
}

// InvokeStructured formats the template with input bound to its {input}
// slot, invokes the schema-coerced model and returns the parsed shipment.
// The result needs no secondary parsing: the response format already
// constrains the shape, the unmarshal here only maps it onto the type.
func (inv *Invoker) InvokeStructured(ctx context.Context, template, input, nodeTag string) (*model.Shipment, error) {
	rendered, err := prompts.RenderInput(ctx, template, input)
	if err != nil {
		return nil, errx.Format(err)
	}

	out, err := inv.generate(ctx, inv.models.Structured, []*schema.Message{
		schema.UserMessage(rendered),
	}, nodeTag)
	if err != nil {
		return nil, err
	}

	var shipment model.Shipment
	if err := json.Unmarshal([]byte(out.Content), &shipment); err != nil {
		return nil, errx.Format(fmt.Errorf("decode structured response: %w", err))
	}
	shipment.Normalize()
	return &shipment, nil
}

// InvokeTemplate formats the template with input bound to its {input} slot
// and sends the rendered text to the plain model as a single user message.
// Used by the free-text shipment variant, whose response goes through the
// repair layer instead of schema coercion.
func (inv *Invoker) InvokeTemplate(ctx context.Context, template, input, nodeTag string) (*schema.Message, error) {
	rendered, err := prompts.RenderInput(ctx, template, input)
	if err != nil {
		return nil, errx.Format(err)
	}
	return inv.generate(ctx, inv.models.Plain, []*schema.Message{
		schema.UserMessage(rendered),
	}, nodeTag)
}

// InvokeText sends a system+user message pair to the plain model and
// returns the raw response message for the caller to post-process.
func (inv *Invoker) InvokeText(ctx context.Context, system, input, nodeTag string) (*schema.Message, error) {
	return inv.generate(ctx, inv.models.Plain, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(input),
	}, nodeTag)
}

// generate runs the retry loop around one logical model call. Retries are
// strictly sequential; a transient failure on the final attempt surfaces as
// KindTransient, permanent failures return immediately.
func (inv *Invoker) generate(ctx context.Context, m einomodel.BaseChatModel, msgs []*schema.Message, nodeTag string) (*schema.Message, error) {
	var last error
	for attempt := 0; attempt < inv.retry.maxAttempts; attempt++ {
		if err := inv.retry.wait(ctx, attempt); err != nil {
			return nil, err
		}

		start := time.Now()
		out, err := m.Generate(ctx, msgs)
		trace.Emit(ctx, inv.sink, trace.Record{
			Project: inv.project,
			Node:    nodeTag,
			Model:   inv.models.ModelName,
			Attempt: attempt + 1,
			Elapsed: time.Since(start),
			Err:     err,
		})

		if err == nil {
			inv.logUsage(nodeTag, out)
			return out, nil
		}
		if !isTransient(err) {
			return nil, err
		}

		last = err
		logx.Warn().
			Err(err).
			Str("node", nodeTag).
			Int("attempt", attempt+1).
			Int("max_attempts", inv.retry.maxAttempts).
			Msg("transient model failure")
	}
	return nil, errx.New(last, errx.KindTransient,
		fmt.Sprintf("request timed out or connection failed after %d attempts", inv.retry.maxAttempts))
}

// logUsage records token usage when the provider reports it.
func (inv *Invoker) logUsage(nodeTag string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	u := out.ResponseMeta.Usage
	logx.Debug().
		Str("node", nodeTag).
		Str("model", inv.models.ModelName).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens).
		Msg("LLM usage")
}
