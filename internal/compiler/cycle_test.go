package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luozhenyu/pgfulltext/internal/schema"
)

func blueprint(table string, parents ...string) *schema.Blueprint {
	bp := schema.NewBlueprint(table, "")
	bp.Inherits(parents...)
	return bp
}

func TestAnalyzeInheritance_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeInheritance(nil))
}

func TestAnalyzeInheritance_DAG(t *testing.T) {
	bps := []*schema.Blueprint{
		blueprint("places"),
		blueprint("cities", "places"),
		blueprint("capitals", "cities", "places"),
	}
	assert.Empty(t, AnalyzeInheritance(bps))
}

func TestAnalyzeInheritance_UndefinedParentIsLeaf(t *testing.T) {
	assert.Empty(t, AnalyzeInheritance([]*schema.Blueprint{blueprint("a", "external")}))
}

func TestAnalyzeInheritance_SelfLoop(t *testing.T) {
	cycles := AnalyzeInheritance([]*schema.Blueprint{blueprint("a", "a")})

	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "a"}, cycles[0].Path)
}

func TestAnalyzeInheritance_TwoNodeCycle(t *testing.T) {
	cycles := AnalyzeInheritance([]*schema.Blueprint{
		blueprint("b", "a"),
		blueprint("a", "b"),
	})

	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "a"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "a → b → a")
}

func TestAnalyzeInheritance_ThreeNodeCycle(t *testing.T) {
	cycles := AnalyzeInheritance([]*schema.Blueprint{
		blueprint("a", "b"),
		blueprint("b", "c"),
		blueprint("c", "a"),
		blueprint("d", "a"),
	})

	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path)
}

func TestAnalyzeInheritance_MultipleCyclesSorted(t *testing.T) {
	cycles := AnalyzeInheritance([]*schema.Blueprint{
		blueprint("y", "z"),
		blueprint("z", "y"),
		blueprint("a", "b"),
		blueprint("b", "a"),
	})

	require.Len(t, cycles, 2)
	assert.Equal(t, "a", cycles[0].Path[0])
	assert.Equal(t, "y", cycles[1].Path[0])
}

func tableNames(bps []*schema.Blueprint) []string {
	names := make([]string, len(bps))
	for i, bp := range bps {
		names[i] = bp.Table
	}
	return names
}

func TestSortByInheritance_ParentsFirst(t *testing.T) {
	sorted := SortByInheritance([]*schema.Blueprint{
		blueprint("capitals", "cities"),
		blueprint("notes"),
		blueprint("cities", "places"),
		blueprint("places"),
	})

	assert.Equal(t, []string{"places", "cities", "capitals", "notes"}, tableNames(sorted))
}

func TestSortByInheritance_KeepsDeclarationOrder(t *testing.T) {
	sorted := SortByInheritance([]*schema.Blueprint{
		blueprint("b"),
		blueprint("a", "external"),
		blueprint("c"),
	})

	assert.Equal(t, []string{"b", "a", "c"}, tableNames(sorted))
}

func TestSortByInheritance_CycleTerminates(t *testing.T) {
	sorted := SortByInheritance([]*schema.Blueprint{
		blueprint("a", "b"),
		blueprint("b", "a"),
	})

	assert.Equal(t, []string{"b", "a"}, tableNames(sorted))
}
