package storage

import (
	"context"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/256dpi/lungo"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStorage keeps posts, comments and users as documents. It works on any
// lungo client: a MongoDB connection or lungo's in-process engine.
type MongoStorage struct {
	posts    lungo.ICollection
	comments lungo.ICollection
	users    lungo.ICollection
	log      *zap.Logger
}

func NewMongoStorage(db lungo.IDatabase, log *zap.Logger) *MongoStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoStorage{
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
		users:    db.Collection("users"),
		log:      log.Named("mongo"),
	}
}

// EnsureIndexes creates the username uniqueness and reply lookup indexes.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "create users index")
	}

	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent_comment", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "create comments index")
	}
	return nil
}

var oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func decodeOne[T any](res lungo.ISingleResult, op string) (*T, error) {
	var doc T
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll lungo.ICollection, op string, filter any, opts ...*options.FindOptions) ([]T, error) {
	csr, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	docs := []T{}
	if err := csr.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return docs, nil
}

func matched(res *mongo.UpdateResult, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (s *MongoStorage) CreatePost(ctx context.Context, post *models.Post) error {
	doc := *post
	doc.Likes = nonNil(doc.Likes)
	doc.Comments = nonNil(doc.Comments)

	s.log.Info("adding post", zap.String("post", post.ID))
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert post")
	}
	return nil
}

func (s *MongoStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	s.log.Debug("fetching all posts")
	newestFirst := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return findAll[models.Post](ctx, s.posts, "find posts", bson.M{}, options.Find().SetSort(newestFirst))
}

func (s *MongoStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.log.Debug("fetching post", zap.String("post", id))
	return decodeOne[models.Post](s.posts.FindOne(ctx, bson.M{"_id": id}), "find post")
}

func (s *MongoStorage) UpdatePost(ctx context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error) {
	res := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "author": authorID},
		bson.M{"$set": bson.M{"title": title, "content": content, "updated_at": at}},
		returnAfter())
	post, err := decodeOne[models.Post](res, "update post")
	if err != nil {
		return nil, err
	}
	s.log.Info("updated post", zap.String("post", id))
	return post, nil
}

func (s *MongoStorage) DeletePost(ctx context.Context, id, authorID string) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id, "author": authorID})
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	s.log.Info("deleted post", zap.String("post", id))
	return nil
}

func (s *MongoStorage) AddPostComment(ctx context.Context, postID, commentID string) error {
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$push": bson.M{"comments": commentID}})
	return matched(res, err, "push post comment")
}

func (s *MongoStorage) RemovePostComment(ctx context.Context, postID, commentID string) error {
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$pull": bson.M{"comments": commentID}})
	return matched(res, err, "pull post comment")
}

func (s *MongoStorage) AddLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	res := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}}, returnAfter())
	return decodeOne[models.Post](res, "add like")
}

func (s *MongoStorage) RemoveLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	res := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"likes": userID}}, returnAfter())
	return decodeOne[models.Post](res, "remove like")
}

func (s *MongoStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	doc := *comment
	doc.Replies = nonNil(doc.Replies)

	s.log.Info("adding comment", zap.String("comment", comment.ID), zap.String("post", comment.PostID))
	if _, err := s.comments.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert comment")
	}
	return nil
}

func (s *MongoStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return decodeOne[models.Comment](s.comments.FindOne(ctx, bson.M{"_id": id}), "find comment")
}

func (s *MongoStorage) GetOwnedComment(ctx context.Context, id, authorID string) (*models.Comment, error) {
	return decodeOne[models.Comment](s.comments.FindOne(ctx, bson.M{"_id": id, "author": authorID}), "find comment")
}

func (s *MongoStorage) UpdateCommentContent(ctx context.Context, id, authorID, content string, at time.Time) (*models.Comment, error) {
	res := s.comments.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "author": authorID},
		bson.M{"$set": bson.M{"content": content, "updated_at": at}},
		returnAfter())
	comment, err := decodeOne[models.Comment](res, "update comment")
	if err != nil {
		return nil, err
	}
	s.log.Info("updated comment", zap.String("comment", id))
	return comment, nil
}

func (s *MongoStorage) DeleteComment(ctx context.Context, id string) error {
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete comment")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	s.log.Info("deleted comment", zap.String("comment", id))
	return nil
}

func (s *MongoStorage) AddReply(ctx context.Context, parentID, replyID string) error {
	res, err := s.comments.UpdateOne(ctx, bson.M{"_id": parentID}, bson.M{"$push": bson.M{"replies": replyID}})
	return matched(res, err, "push reply")
}

func (s *MongoStorage) RemoveReply(ctx context.Context, parentID, replyID string) error {
	res, err := s.comments.UpdateOne(ctx, bson.M{"_id": parentID}, bson.M{"$pull": bson.M{"replies": replyID}})
	return matched(res, err, "pull reply")
}

func (s *MongoStorage) GetRepliesByParentID(ctx context.Context, parentID string) ([]models.Comment, error) {
	return findAll[models.Comment](ctx, s.comments, "find replies",
		bson.M{"parent_comment": parentID}, options.Find().SetSort(oldestFirst))
}

func (s *MongoStorage) GetCommentsByPostID(ctx context.Context, postID string, limit, offset int) ([]models.Comment, error) {
	s.log.Debug("fetching comments", zap.String("post", postID))
	opts := options.Find().
		SetSort(oldestFirst).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return findAll[models.Comment](ctx, s.comments, "find comments",
		bson.M{"post": postID, "parent_comment": nil}, opts)
}

func (s *MongoStorage) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := s.GetUserByUsername(ctx, user.Username); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if _, err := s.users.InsertOne(ctx, *user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert user")
	}
	s.log.Info("registered user", zap.String("user", user.ID))
	return nil
}

func (s *MongoStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return decodeOne[models.User](s.users.FindOne(ctx, bson.M{"_id": id}), "find user")
}

func (s *MongoStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return decodeOne[models.User](s.users.FindOne(ctx, bson.M{"username": username}), "find user")
}

func (s *MongoStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findAll[models.User](ctx, s.users, "find users", bson.M{"_id": bson.M{"$in": ids}})
}
