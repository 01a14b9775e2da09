package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
)

func TestRepairFencedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"items\":[{\"name\":\"crate\",\"quantity\":2}]}\n```\nDone."

	s, err := Repair(raw)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "crate", *s.Items[0].Name)
	assert.Equal(t, 2, *s.Items[0].Quantity)
}

func TestRepairPlainJSON(t *testing.T) {
	s, err := Repair(`{"items":[{"name":"box"}]}`)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "box", *s.Items[0].Name)
}

func TestRepairBareItemArray(t *testing.T) {
	s, err := Repair(`[{"name":"pallet of parts","weight":50}]`)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 50, *s.Items[0].Weight)
}

func TestRepairLineOriented(t *testing.T) {
	raw := `# Item 1
- load carrier: 1 (pallet)
- name: machine parts
- quantity: 3 pieces
- length: 120 cm
- width: 80cm
- height: 100
- weight: 50 kg
- stackable: true

# Item 2
- name: spare crate
- stackable: FALSE`

	s, err := Repair(raw)
	require.NoError(t, err)
	require.Len(t, s.Items, 2)

	first := s.Items[0]
	assert.Equal(t, model.LoadCarrierPallet, *first.LoadCarrier)
	assert.Equal(t, "machine parts", *first.Name)
	assert.Equal(t, 3, *first.Quantity)
	assert.Equal(t, 120, *first.Length)
	assert.Equal(t, 80, *first.Width)
	assert.Equal(t, 100, *first.Height)
	assert.Equal(t, 50, *first.Weight)
	assert.True(t, *first.Stackable)

	second := s.Items[1]
	assert.Equal(t, "spare crate", *second.Name)
	assert.False(t, *second.Stackable)
	assert.Nil(t, second.Quantity)
}

func TestRepairBulletWithoutHeading(t *testing.T) {
	s, err := Repair("- name: loose record\n- quantity: 1")
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "loose record", *s.Items[0].Name)
}

func TestRepairFencedInvalidJSONFallsBack(t *testing.T) {
	raw := "```json\n{not valid json\n```\n# Item\n- name: recovered\n"

	s, err := Repair(raw)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "recovered", *s.Items[0].Name)
}

func TestRepairUnparseable(t *testing.T) {
	_, err := Repair("the weather is nice today")
	require.Error(t, err)
	assert.Equal(t, errx.KindUnparseable, errx.KindOf(err))
}

func TestRepairDeterministic(t *testing.T) {
	raw := "# Item\n- name: box\n- quantity: 4"

	first, err := Repair(raw)
	require.NoError(t, err)
	second, err := Repair(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadCarrierRequiresLeadingDigits(t *testing.T) {
	s, err := Repair("# Item\n- name: x\n- load carrier: pallet (1)")
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Nil(t, s.Items[0].LoadCarrier)
}
