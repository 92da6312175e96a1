package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandIn_AnyEntryPointIsCallable(t *testing.T) {
	standIn := NewStandIn(PlatformLinux, "/opt/helios", []string{"/opt/helios/libhelios.so"}, errors.New("not found"))

	for _, entry := range []string{"createRadiationModel", "runBand", "anything_at_all"} {
		fn := standIn.Bind(entry)
		require.NotNil(t, fn)

		_, err := fn(1, 2, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), entry)
		assert.Contains(t, err.Error(), "stand-in")
		assert.True(t, errors.Is(err, ErrStandIn))

		var standInErr *StandInError
		require.ErrorAs(t, err, &standInErr)
		assert.Equal(t, entry, standInErr.EntryPoint)
	}
}

func TestStandIn_InvokeNamesEntryPoint(t *testing.T) {
	standIn := NewStandIn(PlatformMacOS, "/opt/helios", nil, nil)

	_, err := standIn.Invoke("createContext")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"createContext"`)
	assert.Contains(t, err.Error(), "native library unavailable")
	assert.Contains(t, err.Error(), "CAPGATE_LIBRARY_DIR")
}

func TestStandIn_ResolvesNothing(t *testing.T) {
	standIn := NewStandIn(PlatformWindows, "C:/helios", nil, nil)

	assert.True(t, standIn.IsStandIn())
	assert.False(t, standIn.HasSymbol(DefaultCanarySymbol))

	addr, err := standIn.Lookup(DefaultCanarySymbol)
	assert.Zero(t, addr)
	assert.True(t, errors.Is(err, ErrStandIn))
}

func TestStandIn_UnsupportedPlatformMessage(t *testing.T) {
	standIn := NewStandIn(PlatformUnsupported, ".", nil, ErrUnsupportedPlatform)

	_, err := standIn.Invoke("createContext")
	assert.Contains(t, err.Error(), "only diagnostics are available")
	assert.True(t, errors.Is(err, ErrStandIn))
}

func TestStandIn_TriedIsCopied(t *testing.T) {
	tried := []string{"a", "b"}
	standIn := NewStandIn(PlatformLinux, ".", tried, nil)
	tried[0] = "mutated"

	got := standIn.Tried()
	assert.Equal(t, []string{"a", "b"}, got)
	got[1] = "mutated"
	assert.Equal(t, []string{"a", "b"}, standIn.Tried())
}

func TestStandIn_UniqueIDs(t *testing.T) {
	a := NewStandIn(PlatformLinux, ".", nil, nil)
	b := NewStandIn(PlatformLinux, ".", nil, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}
