package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"-d", "../../testdata/connections.csv"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	out, err := run(t, "query", "-f", "A", "-t", "D", "-a", "06:00", "--legs=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Solution found: from A at 06:00 to D at 08:01")
	assert.Contains(t, out, "solution path: A -> B -> C -> D")

	out, err = run(t, "query", "-f", "C", "-t", "H", "-a", "08:15", "--legs=false")
	require.NoError(t, err)
	assert.Contains(t, out, "No path found from C to H (arrival inf)")
}

func TestQueryCommandLegs(t *testing.T) {
	out, err := run(t, "query", "-f", "E", "-t", "J", "-a", "09:00", "--legs")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [09:05] E -> G (arrive 09:40)")
	assert.Contains(t, out, "2. [10:00] G -> J (arrive 10:34)")
}

func TestQueryCommandUnknownStation(t *testing.T) {
	_, err := run(t, "query", "-f", "Q", "-t", "D", "-a", "06:00")
	assert.ErrorContains(t, err, "unknown station")
}

func TestVerifyCommand(t *testing.T) {
	out, err := run(t, "verify", "-x", "../../testdata/fixtures.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "5 passed, 0 failed")
}

func TestStationsCommand(t *testing.T) {
	out, err := run(t, "stations")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nC\nD\nE\nF\nG\nH\nI\nJ\n", out)
}
