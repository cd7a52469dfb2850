package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/endorsement/models"
	"skillchain/internal/state"
	"skillchain/internal/state/memory"
	id "skillchain/pkg/domain"
)

func TestRecord(t *testing.T) {
	ctx := context.Background()
	st := New()
	kv := state.NewOverlay(memory.New())

	score, err := st.Record(ctx, kv, 0, models.Endorsement{Endorser: "carol", Stake: 100})
	require.NoError(t, err)
	assert.Equal(t, id.Balance(100), score)

	score, err = st.Record(ctx, kv, 0, models.Endorsement{Endorser: "carol", Stake: 50})
	require.NoError(t, err)
	assert.Equal(t, id.Balance(150), score)

	list, err := st.Endorsements(ctx, kv, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.Endorsement{
		{Endorser: "carol", Stake: 100},
		{Endorser: "carol", Stake: 50},
	}, list, "repeat endorsements accumulate independently")

	summary, err := st.Summary(ctx, kv, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Summary{CredentialID: 0, Count: 2, Score: 150}, summary)
}

func TestRecordSaturates(t *testing.T) {
	ctx := context.Background()
	st := New()
	kv := state.NewOverlay(memory.New())

	_, err := st.Record(ctx, kv, 1, models.Endorsement{Endorser: "whale", Stake: id.MaxBalance - 1})
	require.NoError(t, err)
	score, err := st.Record(ctx, kv, 1, models.Endorsement{Endorser: "carol", Stake: 10})
	require.NoError(t, err)
	assert.Equal(t, id.MaxBalance, score)

	list, err := st.Endorsements(ctx, kv, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SumStakes(list), score)
}

func TestEmptyCredential(t *testing.T) {
	ctx := context.Background()
	st := New()
	kv := state.NewOverlay(memory.New())

	list, err := st.Endorsements(ctx, kv, 7)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	score, err := st.Score(ctx, kv, 7)
	require.NoError(t, err)
	assert.Zero(t, score)
}
