package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("sunflower")
	require.NoError(t, err)

	assert.NotEqual(t, "sunflower", hash)
	assert.True(t, CheckPasswordHash("sunflower", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestUserBeforeCreateHashesPassword(t *testing.T) {
	u := &User{Name: "Farmer Joe", Email: "joe@farm.com", Password: "sunflower"}

	require.NoError(t, u.BeforeCreate(nil))

	assert.NotEqual(t, "sunflower", u.Password)
	assert.True(t, CheckPasswordHash("sunflower", u.Password))
}

func TestUserJSONNeverExposesPassword(t *testing.T) {
	u := &User{ID: 1, Name: "Farmer Joe", Email: "joe@farm.com", Password: "hash"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "password")
}
