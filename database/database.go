package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/heblopez/postable-api/config"
	"github.com/heblopez/postable-api/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence boundary for users, posts and likes. Uniqueness of
// usernames, emails and (post, user) likes is enforced by the store itself.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user together with their posts, their likes and
	// every like on their posts.
	DeleteUser(ctx context.Context, id uint) error

	CreatePost(ctx context.Context, post *models.Post) error
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePostContent(ctx context.Context, id uint, content string) error
	PostView(ctx context.Context, id uint) (*models.PostView, error)
	ListPosts(ctx context.Context, query models.PostQuery) ([]models.PostView, error)

	LikeExists(ctx context.Context, postID, userID uint) (bool, error)
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID, userID uint) (bool, error)

	Close() error
}

// Connect opens the store named by cfg.DatabaseURL. postgres:// and sqlite://
// URLs get the relational store, mongodb:// URLs the document store.
func Connect(ctx context.Context, cfg *config.Config) (Store, error) {
	url := cfg.DatabaseURL

	var (
		store Store
		err   error
	)
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		log.Println("Connecting to MongoDB...")
		store, err = ConnectMongo(ctx, url, cfg.MongoDatabase)

	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		log.Println("Connecting to PostgreSQL database...")
		store, err = OpenPostgres(url, cfg.DBDebug)

	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		log.Println("Connecting to SQLite database at", path)
		store, err = OpenSQLite(path, cfg.DBDebug)

	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL %q: must start with postgres://, sqlite:// or mongodb://", url)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}

// SQLiteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

func OpenPostgres(dsn string, debug bool) (*SQLStore, error) {
	return openSQL(postgres.Open(dsn), debug)
}

// OpenSQLite opens (creating if needed) the SQLite database file at path.
func OpenSQLite(path string, debug bool) (*SQLStore, error) {
	return openSQL(sqlite.Open(SQLiteDSN(path)), debug)
}

func openSQL(dialector gorm.Dialector, debug bool) (*SQLStore, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := NewSQLStore(db)
	if err := store.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Println("Database connection established.")
	return store, nil
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	store := NewMongoStore(client, dbName)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	log.Println("Connected to MongoDB successfully")
	return store, nil
}
