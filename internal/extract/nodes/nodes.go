// Package nodes implements the three extraction passes. Each node is a
// pure function over the conversation state: it reads only the last
// submitted message, writes only the keys it owns, and converts every
// failure into a partial state update instead of an error, so one failing
// pass never aborts its siblings.
package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/shipmentbot/server/internal/extract/model"
)

// Graph node names.
const (
	NodeValidate           = "validate"
	NodeParallelProcessing = "parallel_processing"
	NodeShipmentExtractor  = "shipment_extractor"
	NodeNotesExtractor     = "notes_extractor"
	NodeAddressesExtractor = "addresses_extractor"
)

// Fixed local instruction files for the free-text extractors.
const (
	addressesInstructionFile = "instr_addresses_extractor"
	notesInstructionFile     = "instr_notes_extractor"
)

// PromptResolver resolves instruction templates by remote name or local
// file base name.
type PromptResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
	Local(fileBase string) (string, error)
}

// StructuredInvoker issues a schema-coerced model call.
type StructuredInvoker interface {
	InvokeStructured(ctx context.Context, template, input, nodeTag string) (*model.Shipment, error)
}

// TextInvoker issues a free-text model call.
type TextInvoker interface {
	InvokeText(ctx context.Context, system, input, nodeTag string) (*schema.Message, error)
}

// TemplateInvoker issues a free-text model call with the input rendered
// into the instruction template.
type TemplateInvoker interface {
	InvokeTemplate(ctx context.Context, template, input, nodeTag string) (*schema.Message, error)
}

// Func is the node signature the orchestration graph executes: state in,
// updated state copy out. Node-level extraction failures are reported
// through the state, the error return is reserved for programming errors.
type Func func(ctx context.Context, s model.ConversationState) (model.ConversationState, error)

// NewValidate returns the entry node guaranteeing the state shape every
// downstream node relies on.
func NewValidate() Func {
	return func(_ context.Context, s model.ConversationState) (model.ConversationState, error) {
		return model.Normalize(s), nil
	}
}
