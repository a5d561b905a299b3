package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pressmark/blog-platform/internal/core/domain"
)

const userCollection = "users"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	Name              string             `bson:"name"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	IsEmailVerified   bool               `bson:"is_email_verified"`
	IsActive          bool               `bson:"is_active"`
	LastLoginAt       time.Time          `bson:"last_login_at,omitempty"`
	PasswordChangedAt time.Time          `bson:"password_changed_at,omitempty"`

	RefreshTokenHash      string    `bson:"refresh_token_hash,omitempty"`
	RefreshTokenExpiresAt time.Time `bson:"refresh_token_expires_at,omitempty"`

	PasswordResetTokenHash string    `bson:"password_reset_token_hash,omitempty"`
	PasswordResetExpiresAt time.Time `bson:"password_reset_expires_at,omitempty"`

	EmailVerificationTokenHash string    `bson:"email_verification_token_hash,omitempty"`
	EmailVerificationExpiresAt time.Time `bson:"email_verification_expires_at,omitempty"`

	FailedLoginAttempts int       `bson:"failed_login_attempts,omitempty"`
	LockedUntil         time.Time `bson:"locked_until,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := toMongo(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	out := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		out.ID = oid.Hex()
	}
	return &out, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, bson.M{
		"password_reset_token_hash": hash,
		"password_reset_expires_at": bson.M{"$gt": now},
	})
}

func (r *MongoUserRepository) FindByVerificationTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email_verification_token_hash": hash})
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := toMongo(user)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken performs the single-use rotation as one conditional
// document update: the filter matches the stored hash and an unexpired
// window, so of two concurrent rotations of the same token at most one can
// win. The loser sees ErrInvalidRefreshToken.
func (r *MongoUserRepository) RotateRefreshToken(ctx context.Context, oldHash, newHash string, expiresAt, now time.Time) (*domain.User, error) {
	filter := bson.M{
		"refresh_token_hash":       oldHash,
		"refresh_token_expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"refresh_token_hash":       newHash,
		"refresh_token_expires_at": expiresAt,
		"updated_at":               now,
	}}

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return fromMongo(&mu), nil
}

func (r *MongoUserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count by role: %w", err)
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Role  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode role count: %w", err)
		}
		counts[row.Role] = row.Count
	}
	return counts, cur.Err()
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromMongo(&mu), nil
}

func toMongo(u *domain.User) mongoUser {
	return mongoUser{
		Email:             u.Email,
		Name:              u.Name,
		PasswordHash:      u.PasswordHash,
		Role:              u.Role,
		IsEmailVerified:   u.IsEmailVerified,
		IsActive:          u.IsActive,
		LastLoginAt:       u.LastLoginAt,
		PasswordChangedAt: u.PasswordChangedAt,

		RefreshTokenHash:      u.RefreshTokenHash,
		RefreshTokenExpiresAt: u.RefreshTokenExpiresAt,

		PasswordResetTokenHash: u.PasswordResetTokenHash,
		PasswordResetExpiresAt: u.PasswordResetExpiresAt,

		EmailVerificationTokenHash: u.EmailVerificationTokenHash,
		EmailVerificationExpiresAt: u.EmailVerificationExpiresAt,

		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedUntil:         u.LockedUntil,

		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromMongo(mu *mongoUser) *domain.User {
	return &domain.User{
		ID:                mu.ID.Hex(),
		Email:             mu.Email,
		Name:              mu.Name,
		PasswordHash:      mu.PasswordHash,
		Role:              mu.Role,
		IsEmailVerified:   mu.IsEmailVerified,
		IsActive:          mu.IsActive,
		LastLoginAt:       mu.LastLoginAt,
		PasswordChangedAt: mu.PasswordChangedAt,

		RefreshTokenHash:      mu.RefreshTokenHash,
		RefreshTokenExpiresAt: mu.RefreshTokenExpiresAt,

		PasswordResetTokenHash: mu.PasswordResetTokenHash,
		PasswordResetExpiresAt: mu.PasswordResetExpiresAt,

		EmailVerificationTokenHash: mu.EmailVerificationTokenHash,
		EmailVerificationExpiresAt: mu.EmailVerificationExpiresAt,

		FailedLoginAttempts: mu.FailedLoginAttempts,
		LockedUntil:         mu.LockedUntil,

		CreatedAt: mu.CreatedAt,
		UpdatedAt: mu.UpdatedAt,
	}
}
