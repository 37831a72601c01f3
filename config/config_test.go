// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))
	return file
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "nearbatch.yaml", string(Template))
	writeFile(t, dir, ".env", "NEAR_ACCOUNT_ID=alice.testnet\nNEAR_PRIVATE_KEY=ed25519:secret\n")

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "alice.testnet", cfg.Account.ID)
	require.Equal(t, "ed25519:secret", cfg.Account.PrivateKey)
	require.Equal(t, 15*time.Second, cfg.Network.Timeout)
	require.Equal(t, "commit", cfg.Batch.Mode)
	require.Len(t, cfg.Batch.Transactions, 2)
	require.Equal(t, "addMessage", cfg.Batch.Transactions[0].Actions[0].Method)
	require.Equal(t, `{"text":"Aloha"}`, cfg.Batch.Transactions[0].Actions[0].Args)
	require.Equal(t, uint64(30_000_000_000_000), cfg.Batch.Transactions[0].Actions[0].Gas)
}

func TestDefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "nearbatch.yaml", `
account:
  id: alice.testnet
  private-key: ${NEAR_PRIVATE_KEY}
batch:
  transactions:
    - receiver: bob.testnet
      actions:
        - type: transfer
          deposit: "1.5"
`)
	t.Setenv("NEAR_PRIVATE_KEY", "ed25519:fromenv")
	t.Setenv("NEARBATCH_BATCH_MODE", "async")
	t.Setenv("NEARBATCH_BATCH_MAX_IN_FLIGHT", "4")

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "ed25519:fromenv", cfg.Account.PrivateKey)
	require.Equal(t, "async", cfg.Batch.Mode)
	require.Equal(t, 4, cfg.Batch.MaxInFlight)
	require.Equal(t, "https://rpc.testnet.near.org", cfg.Network.RPCURL)
	require.Equal(t, "final", cfg.Network.Finality)
	require.Equal(t, "none", cfg.Batch.Permission)
	require.Equal(t, "transfer", cfg.Batch.Transactions[0].Actions[0].Type)
}

func TestJSONConfig(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "nearbatch.json", `{
		"account": {"id": "alice.testnet", "private-key": "ed25519:x"},
		"batch": {"transactions": [{"receiver": "bob.testnet", "actions": [{"method": "ping", "gas": 1}]}]}
	}`)

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "ping", cfg.Batch.Transactions[0].Actions[0].Method)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"MissingVariable": `
account:
  id: alice.testnet
  private-key: ${NEARBATCH_TEST_UNDEFINED}
batch:
  transactions: [{receiver: bob.testnet, actions: [{method: ping}]}]
`,
		"BadAccount": `
account:
  id: Alice
  private-key: x
batch:
  transactions: [{receiver: bob.testnet, actions: [{method: ping}]}]
`,
		"NoTransactions": `
account:
  id: alice.testnet
  private-key: x
`,
		"NoMethod": `
account:
  id: alice.testnet
  private-key: x
batch:
  transactions: [{receiver: bob.testnet, actions: [{gas: 1}]}]
`,
		"BadMode": `
account:
  id: alice.testnet
  private-key: x
batch:
  mode: eventually
  transactions: [{receiver: bob.testnet, actions: [{method: ping}]}]
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file := writeFile(t, t.TempDir(), "nearbatch.yaml", content)
			_, err := Load(file)
			require.Error(t, err)
			require.Equal(t, errors.BadRequest, errors.Code(err))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Equal(t, errors.BadRequest, errors.Code(err))
}

func TestExpand(t *testing.T) {
	t.Setenv("NEARBATCH_TEST_PROCESS", "from-process")
	b, err := expand([]byte("a=${A} b=$NEARBATCH_TEST_PROCESS c=$$"), map[string]string{"A": "from-dotenv"})
	require.NoError(t, err)
	require.Equal(t, "a=from-dotenv b=from-process c=$", string(b))

	_, err = expand([]byte("${NEARBATCH_TEST_UNDEFINED}"), nil)
	require.Equal(t, errors.BadRequest, errors.Code(err))
}
