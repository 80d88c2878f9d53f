package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"hemoscan/internal/domain"
)

const usersCollection = "users"

type mongoUser struct {
	ID                    bson.ObjectID `bson:"_id,omitempty"`
	Email                 string        `bson:"email"`
	PasswordHash          string        `bson:"password_hash"`
	RefreshTokenHash      string        `bson:"refresh_token_hash,omitempty"`
	RefreshTokenExpiresAt *time.Time    `bson:"refresh_token_expires_at,omitempty"`
	ResetTokenHash        string        `bson:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt   *time.Time    `bson:"reset_token_expires_at,omitempty"`
	CreatedAt             time.Time     `bson:"created_at"`
}

func (m mongoUser) toDomain() domain.User {
	return domain.User{
		ID:                    m.ID.Hex(),
		Email:                 m.Email,
		PasswordHash:          m.PasswordHash,
		RefreshTokenHash:      m.RefreshTokenHash,
		RefreshTokenExpiresAt: utcPtr(m.RefreshTokenExpiresAt),
		ResetTokenHash:        m.ResetTokenHash,
		ResetTokenExpiresAt:   utcPtr(m.ResetTokenExpiresAt),
		CreatedAt:             m.CreatedAt.UTC(),
	}
}

// MongoUserRepository implementa UserRepository sobre la coleccion users.
type MongoUserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoUserRepository(client *mongo.Client, database string) *MongoUserRepository {
	return &MongoUserRepository{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}
}

// EnsureIndexes crea el indice unico de email y el indice del token de reseteo.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token_hash", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

func (r *MongoUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	doc := mongoUser{
		ID:           bson.NewObjectID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, ErrNotFound
	}
	filter := bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{"$unset": bson.M{
		"reset_token_hash":       "",
		"reset_token_expires_at": "",
	}}
	var doc mongoUser
	err := r.users.FindOneAndUpdate(ctx, filter, update).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc mongoUser
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.updateOne(ctx, email, bson.M{"$set": bson.M{"password_hash": passwordHash}})
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	return r.updateOne(ctx, email, bson.M{"$set": bson.M{
		"refresh_token_hash":       tokenHash,
		"refresh_token_expires_at": expiresAt.UTC(),
	}})
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, email string) error {
	return r.updateOne(ctx, email, bson.M{"$unset": bson.M{
		"refresh_token_hash":       "",
		"refresh_token_expires_at": "",
	}})
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	return r.updateOne(ctx, email, bson.M{"$set": bson.M{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": expiresAt.UTC(),
	}})
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) updateOne(ctx context.Context, email string, update bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
