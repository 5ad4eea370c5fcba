package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "sweep", "allocate-jokers"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestMigrateCommand_RejectsUnknownAction(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"migrate", "sideways"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestAllocateJokersCommand_MonthFlag(t *testing.T) {
	flag := allocateJokersCmd.Flags().Lookup("month")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}
