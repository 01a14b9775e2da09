package model

// ConversationState is the unit of data flowing through the extraction
// graph. All optional fields serialize as JSON null until a node fills
// them; after Validate every key exists, so nodes never need existence
// checks.
type ConversationState struct {
	// Messages is the ordered input history. The last element is the
	// active user input for this run.
	Messages []string `json:"messages"`

	// ExtractedData is the structured shipment result, nil until the
	// shipment node succeeds.
	ExtractedData *Shipment `json:"extracted_data"`

	// Notes is the free-text remarks result. Nil when the notes node never
	// ran, empty string when it ran and found nothing.
	Notes *string `json:"notes"`

	// Addresses maps address roles (pickup/delivery) to address fields.
	Addresses map[string]Address `json:"addresses"`

	// StatusMessage is the human-readable outcome surfaced to the caller.
	StatusMessage *string `json:"status_message"`
}

// Clone returns a deep copy. Nodes and the executor never mutate a state
// they did not create.
func (s ConversationState) Clone() ConversationState {
	out := s
	if s.Messages != nil {
		out.Messages = make([]string, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	if s.ExtractedData != nil {
		data := *s.ExtractedData
		if s.ExtractedData.Items != nil {
			data.Items = make([]ShipmentItem, len(s.ExtractedData.Items))
			copy(data.Items, s.ExtractedData.Items)
		}
		out.ExtractedData = &data
	}
	if s.Addresses != nil {
		out.Addresses = make(map[string]Address, len(s.Addresses))
		for k, v := range s.Addresses {
			out.Addresses[k] = v
		}
	}
	return out
}

// LastMessage returns the active user input, empty when no message was
// submitted.
func (s ConversationState) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// Validate normalizes a duck-typed state map from the caller boundary into
// a ConversationState. Total function: it never fails and never mutates raw.
//
// A missing or non-list "messages" value is discarded and replaced with an
// empty list; list entries that are not strings are dropped as well. This
// is an explicit data-loss policy, not an attempt at coercion.
func Validate(raw map[string]any) ConversationState {
	state := ConversationState{Messages: []string{}}
	if raw == nil {
		return state
	}

	if v, ok := raw["messages"].([]any); ok {
		for _, e := range v {
			if s, ok := e.(string); ok {
				state.Messages = append(state.Messages, s)
			}
		}
	} else if v, ok := raw["messages"].([]string); ok {
		state.Messages = append(state.Messages, v...)
	}

	if v, ok := raw["notes"].(string); ok {
		state.Notes = &v
	}
	if v, ok := raw["status_message"].(string); ok {
		state.StatusMessage = &v
	}
	return state
}

// Normalize returns a copy of s that every node may rely on: Messages is
// always a list, never nil. Registered as the entry node of the graph.
func Normalize(s ConversationState) ConversationState {
	out := s.Clone()
	if out.Messages == nil {
		out.Messages = []string{}
	}
	return out
}
