package nodes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/prompts"
)

type fakeResolver struct {
	template   string
	resolveErr error
	local      map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (string, error) {
	return f.template, f.resolveErr
}

func (f *fakeResolver) Local(fileBase string) (string, error) {
	if t, ok := f.local[fileBase]; ok {
		return t, nil
	}
	return "", errors.New("instruction file not found")
}

type fakeStructured struct {
	shipment *model.Shipment
	err      error
}

func (f *fakeStructured) InvokeStructured(_ context.Context, _, _, _ string) (*model.Shipment, error) {
	return f.shipment, f.err
}

type fakeText struct {
	resp *schema.Message
	err  error

	system   string
	template string
	input    string
}

func (f *fakeText) InvokeText(_ context.Context, system, input, _ string) (*schema.Message, error) {
	f.system = system
	f.input = input
	return f.resp, f.err
}

func (f *fakeText) InvokeTemplate(_ context.Context, template, input, _ string) (*schema.Message, error) {
	f.template = template
	f.input = input
	return f.resp, f.err
}

func inputState(msg string) model.ConversationState {
	return model.ConversationState{Messages: []string{msg}}
}

func TestValidateNode(t *testing.T) {
	node := NewValidate()

	out, err := node(context.Background(), model.ConversationState{})
	require.NoError(t, err)
	require.NotNil(t, out.Messages)
	assert.Empty(t, out.Messages)
}

func TestShipmentExtractorSuccess(t *testing.T) {
	shipment := &model.Shipment{Items: []model.ShipmentItem{{
		LoadCarrier: model.Ptr(model.LoadCarrierPallet),
		Quantity:    model.Ptr(3),
		Length:      model.Ptr(120),
		Width:       model.Ptr(80),
		Height:      model.Ptr(100),
		Weight:      model.Ptr(50),
		Stackable:   model.Ptr(true),
	}}}
	node := NewShipmentExtractor(
		&fakeResolver{template: "extract {input}"},
		&fakeStructured{shipment: shipment},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("3 pallets 120x80x100cm 50kg stackable"))
	require.NoError(t, err)
	require.NotNil(t, out.ExtractedData)
	assert.Equal(t, shipment, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Equal(t, MsgExtractionSuccessful, *out.StatusMessage)
}

func TestShipmentExtractorUsesModelMessage(t *testing.T) {
	shipment := &model.Shipment{
		Items:   []model.ShipmentItem{{Name: model.Ptr("crate")}},
		Message: model.Ptr("Extracted one crate, weight unknown."),
	}
	node := NewShipmentExtractor(
		&fakeResolver{template: "extract {input}"},
		&fakeStructured{shipment: shipment},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("a crate"))
	require.NoError(t, err)
	require.NotNil(t, out.StatusMessage)
	assert.Equal(t, "Extracted one crate, weight unknown.", *out.StatusMessage)
}

func TestShipmentExtractorWarnsOnNonPositiveDimensions(t *testing.T) {
	shipment := &model.Shipment{Items: []model.ShipmentItem{
		{Height: model.Ptr(0)},
	}}
	node := NewShipmentExtractor(
		&fakeResolver{template: "extract {input}"},
		&fakeStructured{shipment: shipment},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("a flat thing"))
	require.NoError(t, err)
	require.NotNil(t, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Contains(t, *out.StatusMessage, "Warning: 1 item(s) have non-positive dimensions.")
}

func TestShipmentExtractorPromptUnavailable(t *testing.T) {
	node := NewShipmentExtractor(
		&fakeResolver{resolveErr: errx.PromptUnavailable(errors.New("store down"))},
		&fakeStructured{},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("anything"))
	require.NoError(t, err)
	assert.Nil(t, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Equal(t, MsgPromptNotFound, *out.StatusMessage)
}

func TestShipmentExtractorTransientFailure(t *testing.T) {
	node := NewShipmentExtractor(
		&fakeResolver{template: "extract {input}"},
		&fakeStructured{err: errx.New(errors.New("dial tcp: timeout"), errx.KindTransient,
			"request timed out or connection failed after 3 attempts")},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("anything"))
	require.NoError(t, err)
	assert.Nil(t, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Contains(t, *out.StatusMessage, "Error during extraction:")
	assert.Contains(t, *out.StatusMessage, "timed out")
}

func TestShipmentExtractorFormatKeepsPriorData(t *testing.T) {
	prior := &model.Shipment{Items: []model.ShipmentItem{{Name: model.Ptr("earlier")}}}
	node := NewShipmentExtractor(
		&fakeResolver{template: "extract {input}"},
		&fakeStructured{err: errx.Format(errors.New("unexpected token"))},
		"shipmentbot_shipment",
	)

	in := inputState("garbled")
	in.ExtractedData = prior

	out, err := node(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, prior, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Contains(t, *out.StatusMessage, "Error in data format:")
}

func TestShipmentTextExtractorRepairsOutput(t *testing.T) {
	raw := "```json\n{broken\n```\n## Item\n- load carrier: 1\n- quantity: 3\n- length: 120\n- width: 80\n- height: 100\n- weight: 50\n- stackable: true"
	node := NewShipmentTextExtractor(
		&fakeResolver{template: "extract shipments"},
		&fakeText{resp: schema.AssistantMessage(raw, nil)},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("3 pallets 120x80x100cm 50kg stackable"))
	require.NoError(t, err)
	require.NotNil(t, out.ExtractedData)
	require.Len(t, out.ExtractedData.Items, 1)
	item := out.ExtractedData.Items[0]
	assert.Equal(t, model.LoadCarrierPallet, *item.LoadCarrier)
	assert.Equal(t, 3, *item.Quantity)
	assert.Equal(t, 120, *item.Length)
	assert.True(t, *item.Stackable)
	require.NotNil(t, out.StatusMessage)
	assert.Equal(t, MsgExtractionSuccessful, *out.StatusMessage)
}

func TestShipmentTextExtractorUnparseable(t *testing.T) {
	node := NewShipmentTextExtractor(
		&fakeResolver{template: "extract shipments"},
		&fakeText{resp: schema.AssistantMessage("nothing structured here", nil)},
		"shipmentbot_shipment",
	)

	out, err := node(context.Background(), inputState("gibberish"))
	require.NoError(t, err)
	assert.Nil(t, out.ExtractedData)
	require.NotNil(t, out.StatusMessage)
	assert.Contains(t, *out.StatusMessage, "Error in data format:")
}

func TestNotesExtractorNormalizesResponse(t *testing.T) {
	node := NewNotesExtractor(
		&fakeResolver{local: map[string]string{notesInstructionFile: "extract notes"}},
		&fakeText{resp: schema.AssistantMessage("\"deliver before noon ```{\"x\":1}``` please\"", nil)},
	)

	out, err := node(context.Background(), inputState("deliver before noon"))
	require.NoError(t, err)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "deliver before noon  please", *out.Notes)
}

func TestNotesExtractorFallsBackToInlineInstructions(t *testing.T) {
	node := NewNotesExtractor(
		&fakeResolver{},
		&fakeText{resp: schema.AssistantMessage("handle with care", nil)},
	)

	out, err := node(context.Background(), inputState("fragile goods"))
	require.NoError(t, err)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "handle with care", *out.Notes)
}

func TestNotesExtractorFailureYieldsEmptyString(t *testing.T) {
	node := NewNotesExtractor(
		&fakeResolver{local: map[string]string{notesInstructionFile: "extract notes"}},
		&fakeText{err: errors.New("service down")},
	)

	out, err := node(context.Background(), inputState("anything"))
	require.NoError(t, err)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "", *out.Notes)
}

func TestAddressesExtractorParsesFencedJSON(t *testing.T) {
	resp := "```json\n{\"pickup\":{\"city\":\"Dortmund\",\"postal_code\":\"44263\"}}\n```"
	node := NewAddressesExtractor(
		&fakeResolver{local: map[string]string{addressesInstructionFile: "extract addresses"}},
		&fakeText{resp: schema.AssistantMessage(resp, nil)},
	)

	out, err := node(context.Background(), inputState("pickup in Dortmund"))
	require.NoError(t, err)
	require.Contains(t, out.Addresses, model.RolePickup)
	assert.Equal(t, "Dortmund", out.Addresses[model.RolePickup].City)
}

func TestAddressesExtractorInvalidJSON(t *testing.T) {
	node := NewAddressesExtractor(
		&fakeResolver{local: map[string]string{addressesInstructionFile: "extract addresses"}},
		&fakeText{resp: schema.AssistantMessage("sorry, no addresses found", nil)},
	)

	out, err := node(context.Background(), inputState("anything"))
	require.NoError(t, err)
	assert.Nil(t, out.Addresses)
}

func TestAddressesExtractorMissingInstructions(t *testing.T) {
	node := NewAddressesExtractor(&fakeResolver{}, &fakeText{})

	out, err := node(context.Background(), inputState("anything"))
	require.NoError(t, err)
	assert.Nil(t, out.Addresses)
}

func TestAddressesExtractorDeliversExampleBracesVerbatim(t *testing.T) {
	dir := t.TempDir()
	instruction := "Return JSON like:\n```\n{\n  \"pickup\": {\"city\": \"Dortmund\"}\n}\n```\nAnswer with the JSON object only.\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, addressesInstructionFile+".md"), []byte(instruction), 0o644))

	resolver := prompts.NewResolver(model.PromptConfig{InstructionsDir: dir}, nil)
	capture := &fakeText{resp: schema.AssistantMessage("{}", nil)}
	node := NewAddressesExtractor(resolver, capture)

	_, err := node(context.Background(), inputState("pickup in Dortmund"))
	require.NoError(t, err)

	assert.NotContains(t, capture.system, "{{")
	assert.NotContains(t, capture.system, "}}")
	assert.Contains(t, capture.system, "\"pickup\": {\"city\": \"Dortmund\"}")
}

func TestShipmentTextExtractorForwardsLastMessage(t *testing.T) {
	capture := &fakeText{resp: schema.AssistantMessage("# Item\n- name: box", nil)}
	node := NewShipmentTextExtractor(
		&fakeResolver{template: "extract shipments from {input}"},
		capture,
		"shipmentbot_shipment",
	)

	_, err := node(context.Background(), model.ConversationState{
		Messages: []string{"earlier turn", "one box"},
	})
	require.NoError(t, err)

	assert.Equal(t, "extract shipments from {input}", capture.template)
	assert.Equal(t, "one box", capture.input)
}
