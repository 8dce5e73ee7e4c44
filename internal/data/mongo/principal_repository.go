// Package mongo provides MongoDB implementations of the domain repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/financial-transactions-api/internal/domain/principal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PrincipalRepository stores principals as {username, password_hash, roles}
// documents and implements principal.Lookup.
type PrincipalRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewPrincipalRepository(logger *slog.Logger, coll *mongo.Collection) *PrincipalRepository {
	return &PrincipalRepository{
		coll:   coll,
		logger: logger,
	}
}

// EnsureIndexes creates the unique username index
func (r *PrincipalRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		r.logger.Error("Failed to create principal indexes", "error", err)
		return fmt.Errorf("failed to create principal indexes: %w", err)
	}
	return nil
}

// Lookup finds a principal by username
func (r *PrincipalRepository) Lookup(ctx context.Context, username string) (*principal.Principal, error) {
	var p principal.Principal
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, principal.ErrPrincipalNotFound
		}
		r.logger.Error("Failed to look up principal", "username", username, "error", err)
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}
	return &p, nil
}

// Upsert inserts or replaces the principal with the same username
func (r *PrincipalRepository) Upsert(ctx context.Context, p principal.Principal) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"username": p.Username},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to upsert principal", "username", p.Username, "error", err)
		return fmt.Errorf("failed to upsert principal: %w", err)
	}
	return nil
}

// Seed upserts every principal in order and stops at the first failure
func (r *PrincipalRepository) Seed(ctx context.Context, principals []principal.Principal) error {
	for _, p := range principals {
		if err := r.Upsert(ctx, p); err != nil {
			return err
		}
	}
	r.logger.Info("Principals seeded", "count", len(principals))
	return nil
}
