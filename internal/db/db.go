package db

import (
	"context"
	"database/sql"

	"github.com/256dpi/lungo"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/options"

	_ "github.com/lib/pq"
)

// Connect opens and pings a PostgreSQL pool
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// ConnectMongo connects to a MongoDB server and returns a lungo client over it
func ConnectMongo(ctx context.Context, uri string) (lungo.IClient, error) {
	client, err := lungo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongo")
	}
	return client, nil
}

// OpenMemoryMongo starts lungo's in-process engine backed by a memory store.
// The engine must be closed by the caller.
func OpenMemoryMongo(ctx context.Context) (lungo.IClient, *lungo.Engine, error) {
	client, engine, err := lungo.Open(ctx, lungo.Options{
		Store: lungo.NewMemoryStore(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "open lungo")
	}
	return client, engine, nil
}

// ConnectRedis creates and pings a redis client
func ConnectRedis(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}
