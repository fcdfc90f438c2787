package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/heblopez/postable-api/models"
)

// MongoStore implements Store on MongoDB. Ids are sequential integers handed
// out by the counters collection so they match the relational store.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	likes    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		posts:    db.Collection("posts"),
		likes:    db.Collection("likes"),
		counters: db.Collection("counters"),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$exists": true}}),
		},
	}); err != nil {
		return err
	}

	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	}); err != nil {
		return err
	}

	_, err := s.likes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}

func (s *MongoStore) nextID(ctx context.Context, name string) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return uint(counter.Seq), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return err
	}
	user.ID = id
	_, err = s.users.InsertOne(ctx, user)
	return translateMongoError(err)
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (s *MongoStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, profileUpdate(user))
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// profileUpdate sets the optional profile fields that are present and unsets
// the rest, so a cleared email leaves the partial unique index.
func profileUpdate(user *models.User) bson.M {
	set := bson.M{}
	unset := bson.M{}
	for field, value := range map[string]*string{
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	} {
		if value == nil {
			unset[field] = ""
		} else {
			set[field] = *value
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *MongoStore) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.UserByID(ctx, id); err != nil {
		return err
	}

	cursor, err := s.posts.Find(ctx, bson.M{"userId": id}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	var owned []struct {
		ID uint `bson:"_id"`
	}
	if err := cursor.All(ctx, &owned); err != nil {
		return err
	}
	postIDs := make([]uint, 0, len(owned))
	for _, p := range owned {
		postIDs = append(postIDs, p.ID)
	}

	if _, err := s.likes.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"userId": id},
		bson.M{"postId": bson.M{"$in": postIDs}},
	}}); err != nil {
		return err
	}
	if _, err := s.posts.DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return err
	}
	_, err = s.users.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	id, err := s.nextID(ctx, "posts")
	if err != nil {
		return err
	}
	post.ID = id
	_, err = s.posts.InsertOne(ctx, post)
	return translateMongoError(err)
}

func (s *MongoStore) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translateMongoError(err)
	}
	return &post, nil
}

func (s *MongoStore) UpdatePostContent(ctx context.Context, id uint, content string) error {
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// postViewPipeline joins posts with their author and likes. match filters
// posts before the join; username filters on the author after it.
func postViewPipeline(match bson.D, query models.PostQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		bson.D{{Key: "$unwind", Value: "$author"}},
	)

	if query.Username != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "author.username", Value: query.Username}}}})
	}

	sortField := "createdAt"
	if query.OrderBy == models.SortByLikesCount {
		sortField = "likesCount"
	}
	direction := 1
	if query.Desc {
		direction = -1
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "likes"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "postId"},
			{Key: "as", Value: "likes"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "content", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "username", Value: "$author.username"},
			{Key: "likesCount", Value: bson.D{{Key: "$size", Value: "$likes"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: sortField, Value: direction},
			{Key: "_id", Value: 1},
		}}},
	)
	return pipeline
}

func (s *MongoStore) aggregateViews(ctx context.Context, pipeline mongo.Pipeline) ([]models.PostView, error) {
	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	views := []models.PostView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *MongoStore) PostView(ctx context.Context, id uint) (*models.PostView, error) {
	views, err := s.aggregateViews(ctx, postViewPipeline(bson.D{{Key: "_id", Value: id}}, models.PostQuery{}))
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (s *MongoStore) ListPosts(ctx context.Context, query models.PostQuery) ([]models.PostView, error) {
	return s.aggregateViews(ctx, postViewPipeline(nil, query))
}

func (s *MongoStore) LikeExists(ctx context.Context, postID, userID uint) (bool, error) {
	count, err := s.likes.CountDocuments(ctx, bson.M{"postId": postID, "userId": userID})
	return count > 0, err
}

func (s *MongoStore) CreateLike(ctx context.Context, like *models.Like) error {
	id, err := s.nextID(ctx, "likes")
	if err != nil {
		return err
	}
	like.ID = id
	_, err = s.likes.InsertOne(ctx, like)
	return translateMongoError(err)
}

func (s *MongoStore) DeleteLike(ctx context.Context, postID, userID uint) (bool, error) {
	res, err := s.likes.DeleteOne(ctx, bson.M{"postId": postID, "userId": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
