package mongo

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testHash = "$2a$10$xUTGYeub6CqULQLS76J2kubBZ2pzC.QJk5UDARW7dJalkUn8Jlaxm"

var _ principal.Lookup = (*PrincipalRepository)(nil)

func TestPrincipalRepository_Lookup(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Found", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "username", Value: "admin"},
			{Key: "password_hash", Value: testHash},
			{Key: "roles", Value: bson.A{principal.RoleAdmin, principal.RoleUser}},
		}))

		p, err := repo.Lookup(context.Background(), "admin")
		require.NoError(mt, err)
		assert.Equal(mt, "admin", p.Username)
		assert.Equal(mt, testHash, p.PasswordHash)
		assert.True(mt, p.HasRole(principal.RoleAdmin))
		assert.True(mt, p.HasRole(principal.RoleUser))
	})

	mt.Run("NotFound", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		p, err := repo.Lookup(context.Background(), "ghost")
		assert.Nil(mt, p)
		assert.ErrorIs(mt, err, principal.ErrPrincipalNotFound)
	})

	mt.Run("ServerError", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		p, err := repo.Lookup(context.Background(), "admin")
		assert.Nil(mt, p)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, principal.ErrPrincipalNotFound))
		assert.Contains(mt, err.Error(), "failed to look up principal")
	})
}

func TestPrincipalRepository_Upsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Success", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Upsert(context.Background(), principal.New("user", testHash, principal.RoleUser))
		assert.NoError(mt, err)
	})

	mt.Run("WriteError", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Upsert(context.Background(), principal.New("user", testHash, principal.RoleUser))
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to upsert principal")
	})
}

func TestPrincipalRepository_Seed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	seed, err := principal.ParseSeed("admin:" + testHash + ":ROLE_ADMIN|ROLE_USER;user:" + testHash + ":ROLE_USER")
	require.NoError(t, err)

	mt.Run("UpsertsEveryPrincipal", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, repo.Seed(context.Background(), seed))

		var usernames []string
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "update" {
				continue
			}
			update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
			usernames = append(usernames, update.Lookup("q", "username").StringValue())
			assert.True(mt, update.Lookup("upsert").Boolean())
		}
		assert.Equal(mt, []string{"admin", "user"}, usernames)
	})

	mt.Run("StopsAtFirstFailure", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		err := repo.Seed(context.Background(), seed)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to upsert principal")
		updates := 0
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "update" {
				updates++
			}
		}
		assert.Equal(mt, 1, updates)
	})
}

func TestPrincipalRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Success", func(mt *mtest.T) {
		repo := NewPrincipalRepository(slog.Default(), mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
