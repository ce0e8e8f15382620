package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemFlagStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()

	l, err := fs.Get(ctx, "seller-1")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "seller-1", []string{"high-dispute-rate", "policy-violations"}))
	assert.NoError(fs.Add(ctx, "seller-1", []string{"high-dispute-rate", "duplicate-identity"}))
	l, err = fs.Get(ctx, "seller-1")
	assert.NoError(err)
	assert.Equal(3, len(l))

	assert.NoError(fs.Remove(ctx, "seller-1", []string{"high-dispute-rate", "duplicate-identity", "not-present"}))
	l, err = fs.Get(ctx, "seller-1")
	assert.NoError(err)
	assert.Equal([]string{"policy-violations"}, l)
}

func TestRedisFlagStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	fs, err := NewRedisFlagStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	l, err := fs.Get(ctx, "test1")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "test1", []string{"red", "green"}))
	assert.NoError(fs.Add(ctx, "test1", []string{"red", "blue"}))
	l, err = fs.Get(ctx, "test1")
	assert.NoError(err)
	assert.Equal(3, len(l))

	assert.NoError(fs.Remove(ctx, "test1", []string{"red", "blue", "green"}))
}
