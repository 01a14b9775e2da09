package nodes

import (
	"context"
	"encoding/json"

	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/repair"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// NewAddressesExtractor builds the pickup/delivery address extraction node.
// It owns the addresses key. The instruction is a fixed local file, there
// is no remote lookup, and the model call is free text: the response is
// unwrapped from its fence and parsed as JSON here.
func NewAddressesExtractor(resolver PromptResolver, inv TextInvoker) Func {
	return func(ctx context.Context, s model.ConversationState) (model.ConversationState, error) {
		out := s.Clone()
		out.Addresses = nil

		instructions, err := resolver.Local(addressesInstructionFile)
		if err != nil {
			logx.Error().Err(err).Msg("addresses instructions unavailable")
			return out, nil
		}

		resp, err := inv.InvokeText(ctx, instructions, s.LastMessage(), NodeAddressesExtractor)
		if err != nil {
			logx.Error().Err(err).Msg("addresses extraction call failed")
			return out, nil
		}

		content := resp.Content
		if inner, ok := repair.ExtractFencedBlock(content); ok {
			content = inner
		}

		var addresses map[string]model.Address
		if err := json.Unmarshal([]byte(content), &addresses); err != nil {
			logx.Error().Err(err).Str("content", content).Msg("addresses response is not valid JSON")
			return out, nil
		}

		out.Addresses = addresses
		return out, nil
	}
}
