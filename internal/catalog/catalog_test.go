package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernorateCodesAreUniqueAndPositional(t *testing.T) {
	seenCode := map[string]bool{}
	seenName := map[string]bool{}
	for i, g := range Governorates() {
		assert.Equal(t, i, g.Position, "position of %s", g.Name)
		assert.False(t, seenCode[g.Code], "duplicate code %s", g.Code)
		assert.False(t, seenName[g.Name], "duplicate name %s", g.Name)
		assert.Len(t, g.Code, 2)
		seenCode[g.Code] = true
		seenName[g.Name] = true
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry(nil)

	g, ok := r.Lookup("القاهرة")
	require.True(t, ok)
	assert.Equal(t, "CA", g.Code)
	assert.Equal(t, 0, g.Position)

	g, ok = r.Lookup(" الجيزة ")
	require.True(t, ok)
	assert.Equal(t, "GZ", g.Code)
	assert.Equal(t, 1, g.Position)

	_, ok = r.Lookup("Cairo")
	assert.False(t, ok)
}

func TestVerify(t *testing.T) {
	all := Governorates()

	assert.NoError(t, Verify(nil))
	assert.NoError(t, Verify(all[:3]))
	assert.NoError(t, Verify(all))

	swapped := Governorates()[:2]
	swapped[0], swapped[1] = swapped[1], swapped[0]
	swapped[0].Position, swapped[1].Position = 0, 1
	assert.ErrorIs(t, Verify(swapped), ErrRegistryMismatch)

	longer := append(Governorates(), Governorate{Position: len(all), Name: "x", Code: "XX"})
	assert.ErrorIs(t, Verify(longer), ErrRegistryMismatch)
}

func TestMissing(t *testing.T) {
	all := Governorates()
	assert.Len(t, Missing(nil), len(all))
	assert.Equal(t, all[25:], Missing(all[:25]))
	assert.Empty(t, Missing(all))
}

func TestEntitiesAndCategories(t *testing.T) {
	r := NewRegistry([]string{"لجنة أ", " لجنة أ ", "", "لجنة ب"})
	assert.Equal(t, []string{"لجنة أ", "لجنة ب"}, r.Entities())
	assert.True(t, r.HasEntity("لجنة ب"))
	assert.False(t, r.HasEntity("لجنة الإعلام"))

	assert.True(t, r.HasCategory("workshop"))
	assert.False(t, r.HasCategory("party"))
	assert.Equal(t, "ندوة", CategoryLabel("seminar"))
	assert.Equal(t, "party", CategoryLabel("party"))
}
