package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docingest/core"
)

type stubEngine struct {
	Info
	available bool
}

func (s stubEngine) IsAvailable() bool { return s.available }

func (s stubEngine) Extract(context.Context, string) (*core.ExtractionResult, error) {
	return &core.ExtractionResult{Engine: s.EngineName}, nil
}

func stub(name string, priority int) stubEngine {
	return stubEngine{Info: Info{EngineName: name, EnginePriority: priority, EngineVersion: "v1"}, available: true}
}

func TestRegistry_OrderAndLookup(t *testing.T) {
	reg, err := NewRegistry(stub("zeta", 2), stub("beta", 1), stub("alpha", 2))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	var names []string
	for _, e := range reg.Engines() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"beta", "alpha", "zeta"}, names)

	e, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, 2, e.Priority())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, core.EngineDescriptor{Name: "beta", Priority: 1, Available: true, Version: "v1"}, descs[0])
}

func TestRegistry_Rejects(t *testing.T) {
	reg, err := NewRegistry(stub("a", 1))
	require.NoError(t, err)

	require.ErrorIs(t, reg.Register(stub("a", 5)), ErrDuplicateEngine)
	require.ErrorIs(t, reg.Register(nil), ErrEngineRequired)

	_, err = NewRegistry(stub("a", 1), stub("a", 2))
	require.ErrorIs(t, err, ErrDuplicateEngine)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(stub("any", 1), "whatever.bin"))

	type extEngine struct {
		stubEngine
		Extensions
	}
	e := extEngine{stubEngine: stub("pdf", 1), Extensions: Extensions{".pdf"}}
	assert.True(t, Supports(e, "/x/Report.PDF"))
	assert.False(t, Supports(e, "/x/report.txt"))
}
