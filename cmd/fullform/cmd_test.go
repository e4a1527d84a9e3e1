package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fullform/internal/config"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fullform version "))
}

func TestReconcileFromPayload(t *testing.T) {
	src := t.TempDir()
	payload := writeFile(t, src, "payload.yaml", `
title: Intake
seq_id: 1
tree:
  - type: question
    ix: 0
    caption: Name
    datatype: str
`)
	response := writeFile(t, src, "response.yaml", `
seq_id: 2
tree:
  - type: question
    ix: 0
    caption: Name
    datatype: str
  - type: question
    ix: 1
    caption: Age
    datatype: int
errors:
  "0": Name is taken
`)

	out, err := runCLI(t, "reconcile", "demo", response, "--from", payload)
	require.NoError(t, err)
	assert.Contains(t, out, "seq 2: 0 updated, 0 replaced, 1 added, 0 removed")
	assert.Contains(t, out, "0 Name [str] ! Name is taken")
	assert.Contains(t, out, "1 Age [int]")
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("json is yaml", func(t *testing.T) {
		raw, err := readDocument(nil, writeFile(t, dir, "r.json", `{"status": "accepted", "seq_id": 4}`))
		require.NoError(t, err)
		resp, err := domain.DecodeResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAccepted, resp.Status)
		assert.Equal(t, 4, resp.SeqID)
	})

	t.Run("stdin", func(t *testing.T) {
		raw, err := readDocument(strings.NewReader("tree: []\n"), "-")
		require.NoError(t, err)
		resp, err := domain.DecodeResponse(raw)
		require.NoError(t, err)
		assert.True(t, resp.HasTree)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := readDocument(strings.NewReader(""), "-")
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readDocument(nil, filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func roundTrip(t *testing.T, b *backend) *domain.Snapshot {
	t.Helper()
	ctx := context.Background()
	snap := domain.NewSnapshot(domain.Payload{
		SessionID: "s1",
		Tree: []domain.Descriptor{
			{Type: domain.NodeTypeQuestion, Ix: "0", Caption: "Email address", Datatype: domain.DatatypeString, Answer: "ada@example.com"},
		},
	}, nil)
	require.NoError(t, b.snapshots.Save(ctx, "s1", snap))
	loaded, err := b.snapshots.Load(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, b.options.Set(ctx, "k", []byte("{}")))
	_, err = b.options.Get(ctx, "k")
	require.NoError(t, err)
	return loaded
}

func TestOpenBackend(t *testing.T) {
	t.Run("memory with encryption and pii", func(t *testing.T) {
		c := config.Default()
		c.Encryption.Secret = "s3cret"
		c.Encryption.PIIPatterns = []string{"(?i)email"}
		b, err := openBackend(c)
		require.NoError(t, err)
		defer b.Close()

		loaded := roundTrip(t, b)
		assert.NotEqual(t, "ada@example.com", loaded.Payload.Tree[0].Answer)
		assert.Nil(t, b.locker)
	})

	t.Run("file", func(t *testing.T) {
		c := config.Default()
		c.Store.Backend = "file"
		c.Store.Path = filepath.Join(t.TempDir(), "sessions")
		b, err := openBackend(c)
		require.NoError(t, err)
		defer b.Close()

		loaded := roundTrip(t, b)
		assert.Equal(t, "ada@example.com", loaded.Payload.Tree[0].Answer)
	})

	t.Run("sqlite", func(t *testing.T) {
		c := config.Default()
		c.Store.Backend = "sqlite"
		c.Store.Path = filepath.Join(t.TempDir(), "fullform.db")
		b, err := openBackend(c)
		require.NoError(t, err)
		defer b.Close()

		roundTrip(t, b)
	})

	t.Run("redis with lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c := config.Default()
		c.Store.Backend = "redis"
		c.Redis.Addr = mr.Addr()
		c.Redis.Lock = true
		b, err := openBackend(c)
		require.NoError(t, err)
		defer b.Close()

		roundTrip(t, b)
		require.NotNil(t, b.locker)
		unlock, err := b.locker.Lock(context.Background(), "s1", time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(context.Background()))
	})

	t.Run("malformed pii pattern", func(t *testing.T) {
		c := config.Default()
		c.Encryption.PIIPatterns = []string{"name("}
		_, err := openBackend(c)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := config.Default()
		c.Store.Backend = "tape"
		_, err := openBackend(c)
		assert.Error(t, err)
	})
}
