package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableHandle_InvokesFunctions(t *testing.T) {
	handle := NewTableHandle(PlatformLinux, "/opt/helios", SymbolTable{
		"add": func(args ...uintptr) (uintptr, error) {
			return args[0] + args[1], nil
		},
		"createContext": nil,
	})

	assert.False(t, handle.IsStandIn())
	assert.True(t, handle.HasSymbol("createContext"))

	got, err := handle.Invoke("add", 2, 40)
	require.NoError(t, err)
	assert.Equal(t, uintptr(42), got)

	got, err = handle.Bind("add")(1, 1)
	require.NoError(t, err)
	assert.Equal(t, uintptr(2), got)
}

func TestTableHandle_MissingSymbol(t *testing.T) {
	handle := NewTableHandle(PlatformLinux, ".", SymbolTable{})

	_, err := handle.Invoke("createLiDARcloud")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
	assert.Contains(t, err.Error(), "createLiDARcloud")
}

func TestTableHandle_NilFunctionFailsOnCall(t *testing.T) {
	handle := NewTableHandle(PlatformLinux, ".", SymbolTable{"createContext": nil})

	_, err := handle.Invoke("createContext")
	assert.Error(t, err)
}
