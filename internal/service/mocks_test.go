package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chirper/internal/cache"
	"chirper/internal/model"
)

type mockPostRepo struct {
	SaveFunc              func(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*model.Post, error)
	GetByAuthorFunc       func(ctx context.Context, authorID uuid.UUID, cursorID *uuid.UUID, limit int) ([]model.Post, error)
	GetLatestByAuthorFunc func(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error)
	GetByIDsFunc          func(ctx context.Context, ids []uuid.UUID) ([]model.Post, error)
	CountFunc             func(ctx context.Context) (int64, error)
	DeleteAllFunc         func(ctx context.Context) (int64, error)
}

func (m *mockPostRepo) Save(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	return m.SaveFunc(ctx, tx, post)
}

func (m *mockPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockPostRepo) GetByAuthor(ctx context.Context, authorID uuid.UUID, cursorID *uuid.UUID, limit int) ([]model.Post, error) {
	return m.GetByAuthorFunc(ctx, authorID, cursorID, limit)
}

func (m *mockPostRepo) GetLatestByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error) {
	return m.GetLatestByAuthorFunc(ctx, authorID, limit)
}

func (m *mockPostRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Post, error) {
	return m.GetByIDsFunc(ctx, ids)
}

func (m *mockPostRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

func (m *mockPostRepo) DeleteAll(ctx context.Context) (int64, error) {
	return m.DeleteAllFunc(ctx)
}

type mockFollowRepo struct {
	CreateFunc                 func(ctx context.Context, tx *sqlx.Tx, follow *model.Follow) (bool, error)
	DeleteFunc                 func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID uuid.UUID) (bool, error)
	ExistsFunc                 func(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	GetFollowingFunc           func(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error)
	GetFollowersFunc           func(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error)
	GetAllFollowerIDsFunc      func(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountFollowersFunc         func(ctx context.Context, userID uuid.UUID) (int64, error)
	GetFollowedCelebritiesFunc func(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error)
	CountFunc                  func(ctx context.Context) (int64, error)
	DeleteAllFunc              func(ctx context.Context) (int64, error)
}

func (m *mockFollowRepo) Create(ctx context.Context, tx *sqlx.Tx, follow *model.Follow) (bool, error) {
	return m.CreateFunc(ctx, tx, follow)
}

func (m *mockFollowRepo) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID uuid.UUID) (bool, error) {
	return m.DeleteFunc(ctx, tx, followerID, followeeID)
}

func (m *mockFollowRepo) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return m.ExistsFunc(ctx, followerID, followeeID)
}

func (m *mockFollowRepo) GetFollowing(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error) {
	return m.GetFollowingFunc(ctx, userID, cursor, limit)
}

func (m *mockFollowRepo) GetFollowers(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error) {
	return m.GetFollowersFunc(ctx, userID, cursor, limit)
}

func (m *mockFollowRepo) GetAllFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.GetAllFollowerIDsFunc(ctx, userID)
}

func (m *mockFollowRepo) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.CountFollowersFunc(ctx, userID)
}

func (m *mockFollowRepo) GetFollowedCelebrities(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
	return m.GetFollowedCelebritiesFunc(ctx, userID, threshold)
}

func (m *mockFollowRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

func (m *mockFollowRepo) DeleteAll(ctx context.Context) (int64, error) {
	return m.DeleteAllFunc(ctx)
}

type mockTimelineCache struct {
	AddFunc        func(ctx context.Context, readerID, postID uuid.UUID, score int64) error
	AddManyFunc    func(ctx context.Context, readerID uuid.UUID, entries []cache.PostScore) error
	RemoveFunc     func(ctx context.Context, readerID, postID uuid.UUID) error
	RemoveManyFunc func(ctx context.Context, readerID uuid.UUID, postIDs []uuid.UUID) error
	RangeFunc      func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error)
	TrimFunc       func(ctx context.Context, readerID uuid.UUID, maxSize int) error
	SizeFunc       func(ctx context.Context, readerID uuid.UUID) (int64, error)
	FlushAllFunc   func(ctx context.Context) (int64, error)
}

func (m *mockTimelineCache) Add(ctx context.Context, readerID, postID uuid.UUID, score int64) error {
	return m.AddFunc(ctx, readerID, postID, score)
}

func (m *mockTimelineCache) AddMany(ctx context.Context, readerID uuid.UUID, entries []cache.PostScore) error {
	return m.AddManyFunc(ctx, readerID, entries)
}

func (m *mockTimelineCache) Remove(ctx context.Context, readerID, postID uuid.UUID) error {
	return m.RemoveFunc(ctx, readerID, postID)
}

func (m *mockTimelineCache) RemoveMany(ctx context.Context, readerID uuid.UUID, postIDs []uuid.UUID) error {
	return m.RemoveManyFunc(ctx, readerID, postIDs)
}

func (m *mockTimelineCache) Range(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
	return m.RangeFunc(ctx, readerID, maxScore, limit)
}

func (m *mockTimelineCache) Trim(ctx context.Context, readerID uuid.UUID, maxSize int) error {
	return m.TrimFunc(ctx, readerID, maxSize)
}

func (m *mockTimelineCache) Size(ctx context.Context, readerID uuid.UUID) (int64, error) {
	return m.SizeFunc(ctx, readerID)
}

func (m *mockTimelineCache) FlushAll(ctx context.Context) (int64, error) {
	return m.FlushAllFunc(ctx)
}
