package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCoversEveryConstant(t *testing.T) {
	codes := []string{
		PAR001, PAR002,
		MOD001, MOD002, MOD003, MOD004, MOD005,
		LDR001, LDR002, LDR003, LDR004, LDR005,
		PKG001, PKG002, PKG003,
		CLS001, CLS002, CLS003,
		RES001, RES002, RES003, RES004, RES005,
		ABS001, ABS002,
		DEF001, DEF002, DEF003, DEF004,
		TYP001, TYP002, TYP003,
		LSP001, LSP002,
		PIPE001, PIPE002, PIPE003,
	}
	for _, c := range codes {
		info, ok := Registry[c]
		assert.True(t, ok, "missing registry entry for %s", c)
		assert.Equal(t, c, info.Code)
		assert.NotEmpty(t, info.Phase)
	}
}

func TestPhaseLookup(t *testing.T) {
	assert.Equal(t, "classir", Phase(CLS001))
	assert.Equal(t, "", Phase("NOPE999"))
}
