package nodes

import (
	"context"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/repair"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// NewShipmentTextExtractor is the free-text variant of the shipment node,
// for providers without schema-coerced output. The instruction template is
// rendered with the input and sent as one user message, the raw response
// goes through the repair layer. Owns the same keys as the structured
// variant.
func NewShipmentTextExtractor(resolver PromptResolver, inv TemplateInvoker, promptName string) Func {
	return func(ctx context.Context, s model.ConversationState) (model.ConversationState, error) {
		template, err := resolver.Resolve(ctx, promptName)
		if err != nil {
			logx.Error().Err(err).Str("prompt", promptName).Msg("prompt resolution failed, extraction cannot proceed")
			return errorResponse(s, errx.KindPromptUnavailable, ""), nil
		}

		resp, err := inv.InvokeTemplate(ctx, template, s.LastMessage(), NodeShipmentExtractor)
		if err != nil {
			kind := errx.KindOf(err)
			logx.Error().Err(err).Str("kind", kind.String()).Msg("shipment extraction failed")
			return errorResponse(s, kind, err.Error()), nil
		}

		shipment, err := repair.Repair(resp.Content)
		if err != nil {
			logx.Warn().Err(err).Msg("model output yielded no usable shipment data")
			return errorResponse(s, errx.KindOf(err), err.Error()), nil
		}

		out := s.Clone()
		out.ExtractedData = shipment

		msg := MsgExtractionSuccessful
		if warn := dimensionWarning(shipment); warn != "" {
			msg = msg + " " + warn
		}
		out.StatusMessage = model.Ptr(msg)
		return out, nil
	}
}
