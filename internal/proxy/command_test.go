package proxy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redforge/server/internal/bridge"
)

func TestRegisterCommandValidation(t *testing.T) {
	ctx := newTestContext()

	h := ctx.RegisterCommand("ember", "spawn wolves", `[{"name":"count","type":"int"}]`, 2)
	require.NotZero(t, h)

	cmd, ok := ctx.CommandByName("ember")
	require.True(t, ok)
	assert.Equal(t, h, cmd.Handle)
	assert.Equal(t, 2, cmd.Permission)

	assert.Zero(t, ctx.RegisterCommand("", "", "", 0), "empty name")
	assert.Zero(t, ctx.RegisterCommand("has space", "", "", 0))
	assert.Zero(t, ctx.RegisterCommand("ember", "", "", 0), "name taken")
	assert.Zero(t, ctx.RegisterCommand("bad", "", `not json`, 0))
	assert.Zero(t, ctx.RegisterCommand("bad", "", `[{"name":"x","type":"vec3"}]`, 0), "unknown arg type")
}

func TestExecuteCommandParsesArgs(t *testing.T) {
	ctx := newTestContext()

	spec := `[{"name":"count","type":"int"},{"name":"speed","type":"float"},{"name":"tame","type":"bool"},{"name":"note","type":"string"}]`
	h := ctx.RegisterCommand("spawn", "", spec, 0)
	require.NotZero(t, h)

	var gotHandle bridge.Handle
	var gotPlayer int64
	var gotArgs map[string]any
	ctx.Dispatch().InstallCommandExecute(func(h bridge.Handle, playerID int64, argsJSON string) int {
		gotHandle, gotPlayer = h, playerID
		require.NoError(t, json.Unmarshal([]byte(argsJSON), &gotArgs))
		return 7
	})

	code, err := ctx.ExecuteCommand("spawn 3 1.5 true over by the ridge", 42)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, h, gotHandle)
	assert.Equal(t, int64(42), gotPlayer)
	assert.Equal(t, float64(3), gotArgs["count"])
	assert.Equal(t, 1.5, gotArgs["speed"])
	assert.Equal(t, true, gotArgs["tame"])
	// Trailing string argument swallows the rest of the line.
	assert.Equal(t, "over by the ridge", gotArgs["note"])
}

func TestExecuteCommandErrors(t *testing.T) {
	ctx := newTestContext()
	require.NotZero(t, ctx.RegisterCommand("give", "", `[{"name":"count","type":"int"}]`, 0))

	_, err := ctx.ExecuteCommand("", 1)
	assert.Error(t, err)
	_, err = ctx.ExecuteCommand("   ", 1)
	assert.Error(t, err)
	_, err = ctx.ExecuteCommand("unknown", 1)
	assert.Error(t, err)
	_, err = ctx.ExecuteCommand("give", 1)
	assert.Error(t, err, "missing argument")
	_, err = ctx.ExecuteCommand("give many", 1)
	assert.Error(t, err, "non-numeric int argument")
}
