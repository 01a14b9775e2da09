package nodes

import (
	"context"
	"fmt"
	"strings"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// NewShipmentExtractor builds the structured extraction node. It owns
// extracted_data and status_message.
func NewShipmentExtractor(resolver PromptResolver, inv StructuredInvoker, promptName string) Func {
	return func(ctx context.Context, s model.ConversationState) (model.ConversationState, error) {
		input := s.LastMessage()

		template, err := resolver.Resolve(ctx, promptName)
		if err != nil {
			logx.Error().Err(err).Str("prompt", promptName).Msg("prompt resolution failed, extraction cannot proceed")
			return errorResponse(s, errx.KindPromptUnavailable, ""), nil
		}

		shipment, err := inv.InvokeStructured(ctx, template, input, NodeShipmentExtractor)
		if err != nil {
			kind := errx.KindOf(err)
			logx.Error().Err(err).Str("kind", kind.String()).Msg("shipment extraction failed")
			out := errorResponse(s, kind, err.Error())
			if kind == errx.KindFormat && s.ExtractedData != nil {
				// keep partially available data from an earlier turn
				out.ExtractedData = s.ExtractedData
			}
			return out, nil
		}

		out := s.Clone()
		out.ExtractedData = shipment

		msg := MsgExtractionSuccessful
		if shipment.Message != nil && strings.TrimSpace(*shipment.Message) != "" {
			msg = *shipment.Message
		}
		if warn := dimensionWarning(shipment); warn != "" {
			msg = msg + " " + warn
		}
		out.StatusMessage = model.Ptr(msg)

		logx.Debug().
			Int("items", len(shipment.Items)).
			Msg("shipment extraction succeeded")
		return out, nil
	}
}

// dimensionWarning flags items with non-positive dimensions. Data quality
// warning only: the extraction result is kept as-is.
func dimensionWarning(s *model.Shipment) string {
	idx := s.WarnNonPositiveDimensions()
	if len(idx) == 0 {
		return ""
	}
	return fmt.Sprintf("Warning: %d item(s) have non-positive dimensions.", len(idx))
}
