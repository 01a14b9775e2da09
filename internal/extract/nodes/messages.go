package nodes

import (
	"fmt"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
)

// User-facing status messages.
const (
	MsgExtractionSuccessful = "Extraction successful"
	MsgPromptNotFound       = "Error: Could not load the prompt."

	msgFormatError     = "Error in data format: %s"
	msgExtractionError = "Error during extraction: %s"
	msgUnknownError    = "Unexpected error: %s"
)

// statusMessage renders the message template for an error kind, with the
// detail interpolated when the template accepts it.
func statusMessage(kind errx.Kind, detail string) string {
	switch kind {
	case errx.KindPromptUnavailable:
		return MsgPromptNotFound
	case errx.KindFormat, errx.KindUnparseable:
		return fmt.Sprintf(msgFormatError, detail)
	case errx.KindTransient:
		return fmt.Sprintf(msgExtractionError, detail)
	default:
		return fmt.Sprintf(msgUnknownError, detail)
	}
}

// errorResponse is the uniform failure update for the shipment node: no
// extracted data, templated status message.
func errorResponse(s model.ConversationState, kind errx.Kind, detail string) model.ConversationState {
	out := s.Clone()
	out.ExtractedData = nil
	out.StatusMessage = model.Ptr(statusMessage(kind, detail))
	return out
}
