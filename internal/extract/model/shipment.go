package model

// LoadCarrier is the physical handling unit of a shipment item. The wire
// representation is the plain integer, matching the prompt instructions
// given to the model.
type LoadCarrier int

const (
	LoadCarrierPallet         LoadCarrier = 1
	LoadCarrierPackage        LoadCarrier = 2
	LoadCarrierEuroPalletCage LoadCarrier = 3
	LoadCarrierDocument       LoadCarrier = 4
	LoadCarrierOther          LoadCarrier = 5
)

func (c LoadCarrier) String() string {
	switch c {
	case LoadCarrierPallet:
		return "pallet"
	case LoadCarrierPackage:
		return "package"
	case LoadCarrierEuroPalletCage:
		return "euro_pallet_cage"
	case LoadCarrierDocument:
		return "document"
	case LoadCarrierOther:
		return "other"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the closed enumeration values.
func (c LoadCarrier) Valid() bool {
	return c >= LoadCarrierPallet && c <= LoadCarrierOther
}

// ShipmentItem describes a single item of a shipment. Every field is
// optional: the model only fills what the input text supports.
type ShipmentItem struct {
	LoadCarrier *LoadCarrier `json:"load_carrier,omitempty"`
	Name        *string      `json:"name,omitempty"`
	Quantity    *int         `json:"quantity,omitempty"`

	// Dimensions in cm, weight in kg.
	Length *int `json:"length,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
	Weight *int `json:"weight,omitempty"`

	Stackable *bool `json:"stackable,omitempty"`
}

// HasNonPositiveDimension reports whether any present dimension is zero or
// negative. That is a data-quality warning, never a hard failure.
func (it ShipmentItem) HasNonPositiveDimension() bool {
	for _, d := range []*int{it.Length, it.Width, it.Height} {
		if d != nil && *d <= 0 {
			return true
		}
	}
	return false
}

// Shipment is the structured extraction target.
type Shipment struct {
	Items []ShipmentItem `json:"items"`

	// ShipmentNotes holds remarks not captured by the structured fields.
	ShipmentNotes *string `json:"shipment_notes,omitempty"`

	// Message is the model's own commentary, e.g. about fields it could
	// not determine.
	Message *string `json:"message,omitempty"`
}

// Normalize guarantees Items is non-nil after a successful parse.
func (s *Shipment) Normalize() {
	if s.Items == nil {
		s.Items = []ShipmentItem{}
	}
}

// WarnNonPositiveDimensions returns the indexes of items carrying a
// non-positive dimension, for attaching a warning to the status message.
func (s *Shipment) WarnNonPositiveDimensions() []int {
	var idx []int
	for i, it := range s.Items {
		if it.HasNonPositiveDimension() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Ptr returns a pointer to v. Convenience for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}
