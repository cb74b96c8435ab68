package shape

import (
	"testing"

	"github.com/embedlang/emlangc/internal/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromParamsComputesArityRange(t *testing.T) {
	params := []lang.Param{
		{Name: "a"},
		{Name: "b", DefaultValue: &lang.IntLit{Value: 1}},
		{Name: "blk", IsBlock: true},
	}
	s := FromParams(params, true)
	assert.Equal(t, 1, s.MinArity)
	assert.Equal(t, 2, s.MaxArity)
	assert.Equal(t, 1, s.BlockCount)
	assert.True(t, s.HasImplicitThis)
}

func TestAcceptsChecksArityAndNamedArgs(t *testing.T) {
	s := ResolutionShape{MinArity: 1, MaxArity: 2, ParamNames: []string{"a", "b"}}
	assert.True(t, s.Accepts(CallShape{Arity: 1}))
	assert.True(t, s.Accepts(CallShape{Arity: 2, NamedArgNames: []string{"b"}}))
	assert.False(t, s.Accepts(CallShape{Arity: 0}))
	assert.False(t, s.Accepts(CallShape{Arity: 3}))
	assert.False(t, s.Accepts(CallShape{Arity: 1, NamedArgNames: []string{"nope"}}))
}

func TestAcceptsRequiresMatchingBlockCount(t *testing.T) {
	s := ResolutionShape{MinArity: 0, MaxArity: 0, BlockCount: 1}
	assert.True(t, s.Accepts(CallShape{BlockCount: 1}))
	assert.False(t, s.Accepts(CallShape{BlockCount: 0}))
}

func TestIsFullyShadowedByDetectsCompleteCoverage(t *testing.T) {
	abstractShape := ResolutionShape{MinArity: 0, MaxArity: 1, ParamNames: []string{"a"}}
	overrides := []ResolutionShape{{MinArity: 0, MaxArity: 1, ParamNames: []string{"a"}}}
	shadowed, missing := IsFullyShadowedBy(abstractShape, overrides)
	assert.True(t, shadowed)
	assert.Nil(t, missing)
}

func TestIsFullyShadowedByReportsMissingArity(t *testing.T) {
	abstractShape := ResolutionShape{MinArity: 0, MaxArity: 2}
	overrides := []ResolutionShape{{MinArity: 0, MaxArity: 1}}
	shadowed, missing := IsFullyShadowedBy(abstractShape, overrides)
	assert.False(t, shadowed)
	require.NotNil(t, missing)
	assert.Equal(t, 2, missing.Arity)
}

func TestIsFullyShadowedByWithNoOverridesIsNotShadowed(t *testing.T) {
	abstractShape := ResolutionShape{MinArity: 0, MaxArity: 0}
	shadowed, missing := IsFullyShadowedBy(abstractShape, nil)
	assert.False(t, shadowed)
	require.NotNil(t, missing)
	assert.Equal(t, 0, missing.Arity)
}
