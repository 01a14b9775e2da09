package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/repair"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// defaultNotesInstructions is used when no local instruction file is
// shipped next to the binary.
const defaultNotesInstructions = `Extract only additional remarks and handling
notes from the input that are not part of the structured shipment data
(no items, dimensions, weights or addresses). Answer with the plain note
text only. Answer with an empty string when there are no remarks.`

// NewNotesExtractor builds the free-text remarks extraction node. It owns
// the notes key. The result is always a string: empty when the model found
// nothing, never null once the node ran.
func NewNotesExtractor(resolver PromptResolver, inv TextInvoker) Func {
	return func(ctx context.Context, s model.ConversationState) (model.ConversationState, error) {
		out := s.Clone()

		instructions, err := resolver.Local(notesInstructionFile)
		if err != nil {
			logx.Warn().Err(err).Msg("notes instruction file missing, using inline default")
			instructions = defaultNotesInstructions
		}

		resp, err := inv.InvokeText(ctx, instructions, s.LastMessage(), NodeNotesExtractor)
		if err != nil {
			logx.Error().Err(err).Msg("notes extraction call failed")
			out.Notes = model.Ptr("")
			return out, nil
		}

		out.Notes = model.Ptr(normalizeNotes(resp))
		return out, nil
	}
}

// normalizeNotes flattens a possibly multi-part response into one trimmed
// string: text fragments joined with spaces, fenced blocks removed,
// surrounding quote characters stripped.
func normalizeNotes(resp *schema.Message) string {
	content := resp.Content
	if len(resp.MultiContent) > 0 {
		var parts []string
		for _, p := range resp.MultiContent {
			if p.Type == schema.ChatMessagePartTypeText && p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
		content = strings.Join(parts, " ")
	}

	content = repair.RemoveFencedBlocks(content)
	content = strings.Trim(content, `"'`)
	return strings.TrimSpace(content)
}
