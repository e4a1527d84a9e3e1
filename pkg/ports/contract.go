package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(sessionID string) *domain.Snapshot {
	sc := domain.NewSessionContext()
	sc.QueryKey = "search_command.m1"
	sc.StickyQueryInputs["search_command.m1"] = map[string]string{"name": "Ada"}
	return domain.NewSnapshot(domain.Payload{
		SessionID: sessionID,
		SeqID:     3,
		Title:     "Contract",
		Langs:     []string{"en", "fr"},
		Tree: []domain.Descriptor{
			{Type: domain.NodeTypeQuestion, Ix: "0", Caption: "Name", Datatype: domain.DatatypeString, Answer: "Ada"},
			{Type: domain.NodeTypeRepeat, Ix: "1", Children: []domain.Descriptor{
				{Type: domain.NodeTypeGroup, Ix: "1_0", Children: []domain.Descriptor{
					{Type: domain.NodeTypeQuestion, Ix: "1_0,0", Datatype: domain.DatatypeSelect, Choices: []string{"a", "b"}},
				}},
			}},
		},
	}, sc)
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(sessionID)

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Payload.SessionID, loaded.Payload.SessionID)
		assert.Equal(t, snap.Payload.SeqID, loaded.Payload.SeqID)
		assert.Equal(t, snap.Payload.Langs, loaded.Payload.Langs)
		require.Len(t, loaded.Payload.Tree, 2)
		assert.Equal(t, "Ada", loaded.Payload.Tree[0].Answer)
		assert.Equal(t, domain.NodeTypeGroup, loaded.Payload.Tree[1].Children[0].Type)
		require.NotNil(t, loaded.Context)
		assert.Equal(t, "Ada", loaded.Context.StickyQueryInputs["search_command.m1"]["name"])
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should survive persistence")
	})

	t.Run("Save overwrites", func(t *testing.T) {
		snap := contractSnapshot(sessionID)
		snap.Payload.SeqID = 9
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 9, loaded.Payload.SeqID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunOptionsStoreContract verifies an OptionsStore implementation.
func RunOptionsStoreContract(t *testing.T, store OptionsStore) {
	ctx := context.Background()
	key := "test:demo:contract-" + time.Now().Format("150405") + ":displayOptions"

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrOptionsNotFound)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte(`{"language":"fr"}`)))
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"language":"fr"}`, string(got))

		require.NoError(t, store.Set(ctx, key, []byte(`{"language":"en"}`)))
		got, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"language":"en"}`, string(got))
	})

	t.Run("Stores arbitrary bytes", func(t *testing.T) {
		raw := []byte("{not json")
		require.NoError(t, store.Set(ctx, key, raw))
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrOptionsNotFound)
		assert.NoError(t, store.Delete(ctx, key))
	})
}
