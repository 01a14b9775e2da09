// Package llm wraps the text-generation service: one schema-coerced chat
// model for structured shipment extraction and one plain model for the
// free-text extractors, both with retry on transient failures.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	openaiacl "github.com/cloudwego/eino-ext/libs/acl/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/shipmentbot/server/internal/extract/model"
)

// Models holds the two chat models the extraction nodes invoke.
type Models struct {
	// Structured responds with JSON conforming to the Shipment schema.
	Structured einomodel.BaseChatModel
	// Plain responds with free text.
	Plain einomodel.BaseChatModel

	ModelName string
}

// NewModels builds both chat models against the configured endpoint. The
// structured model requests a JSON-schema response format generated from
// the Shipment type, so its output is shape-valid by construction.
func NewModels(ctx context.Context, cfg model.LLMConfig) (*Models, error) {
	shipmentSchema, err := openapi3gen.NewSchemaRefForValue(&model.Shipment{}, nil)
	if err != nil {
		return nil, fmt.Errorf("generate shipment schema: %w", err)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second

	structured, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
		Timeout:     timeout,
		ResponseFormat: &openaiacl.ChatCompletionResponseFormat{
			Type: openaiacl.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openaiacl.ChatCompletionResponseFormatJSONSchema{
				Name:   "shipment",
				Strict: false,
				Schema: shipmentSchema.Value,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create structured chat model: %w", err)
	}

	plain, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create plain chat model: %w", err)
	}

	return &Models{
		Structured: structured,
		Plain:      plain,
		ModelName:  cfg.Model,
	}, nil
}
