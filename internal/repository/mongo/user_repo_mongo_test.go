package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/repository/ports"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate("find", mongo.ErrNoDocuments), ports.ErrNotFound)

	cause := errors.New("server selection timeout")
	err := translate("find user by email", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
	assert.Contains(t, err.Error(), "find user by email")
}

func TestDuplicateKeyDetection(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.True(t, mongo.IsDuplicateKeyError(dup))

	other := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "document failed validation"}}}
	assert.False(t, mongo.IsDuplicateKeyError(other))
}

func TestUnexpiredTokenFilter(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	filter := unexpiredTokenFilter("tok", now)

	want := bson.D{
		{Key: "reset_token", Value: "tok"},
		{Key: "reset_token_expiry", Value: bson.D{{Key: "$gte", Value: now}}},
	}
	assert.Equal(t, want, filter)
	assert.Equal(t, bson.D{{Key: "reset_token", Value: "tok"}}, tokenFilter("tok"))
}

func TestClearResetUpdateNullsBothFields(t *testing.T) {
	now := time.Now().UTC()
	update := clearResetUpdate(now)

	require.Len(t, update, 1)
	assert.Equal(t, "$set", update[0].Key)
	set, ok := update[0].Value.(bson.D)
	require.True(t, ok)

	fields := map[string]any{}
	for _, e := range set {
		fields[e.Key] = e.Value
	}
	assert.Nil(t, fields["reset_token"])
	assert.Nil(t, fields["reset_token_expiry"])
	assert.Contains(t, fields, "reset_token")
	assert.Contains(t, fields, "reset_token_expiry")
}

func TestUserIndexes(t *testing.T) {
	indexes := userIndexes()
	require.Len(t, indexes, 2)
	assert.Equal(t, bson.D{{Key: "email", Value: 1}}, indexes[0].Keys)
	assert.Equal(t, bson.D{{Key: "reset_token", Value: 1}}, indexes[1].Keys)
	assert.NotNil(t, indexes[0].Options)
	assert.NotNil(t, indexes[1].Options)
}

func TestUserDocumentRoundTrip(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	user := domain.User{ID: "u-1", Email: "alice@x.com", PasswordHash: "hash"}
	user.SetReset("tok", expiry)

	raw, err := bson.Marshal(user)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "u-1", doc["_id"])
	assert.Equal(t, "tok", doc["reset_token"])

	var decoded domain.User
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.ResetTokenExpiry)
	assert.True(t, decoded.ResetTokenExpiry.Equal(expiry))

	user.ClearReset()
	raw, err = bson.Marshal(user)
	require.NoError(t, err)
	var cleared domain.User
	require.NoError(t, bson.Unmarshal(raw, &cleared))
	assert.Nil(t, cleared.ResetToken)
	assert.Nil(t, cleared.ResetTokenExpiry)
}
