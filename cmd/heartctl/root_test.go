package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/heart-disease-api/internal/utils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Patient 1:")
	assert.Contains(t, out, "Patient 2:")
	assert.Equal(t, 2, strings.Count(out, "Risk level:"))
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Low")
}

func TestHashKeyCommand(t *testing.T) {
	out, err := execute(t, "hash-key", "op-key", "--cost", strconv.Itoa(bcrypt.MinCost))
	require.NoError(t, err)
	assert.True(t, utils.VerifyKey(strings.TrimSpace(out), "op-key"))
}

func TestPredictRejectsBadIndex(t *testing.T) {
	_, err := execute(t, "predict", "--patient", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--patient")
}
