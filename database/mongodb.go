package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"cfb-picks/logging"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collection names
const (
	UsersCollection  = "users"
	GamesCollection  = "games"
	PicksCollection  = "picks"
	ScoresCollection = "scores"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// URI builds the mongodb:// connection string
func (c Config) URI() string {
	if c.Username != "" && c.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=%s",
			c.Username, c.Password, c.Host, c.Port, c.Database, c.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s", c.Host, c.Port, c.Database)
}

type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoConnection connects and pings. Reads go to the primary with
// majority write acknowledgement so the reconciler sees its own writes.
func NewMongoConnection(config Config) (*MongoDB, error) {
	logger := logging.WithPrefix("MongoDB")

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = MediumTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if config.Username != "" && config.Password != "" {
		logger.Infof("Connecting with authentication as user: %s", config.Username)
	} else {
		logger.Info("Connecting without authentication")
	}

	opts := options.Client().
		ApplyURI(config.URI()).
		SetReadPreference(readpref.Primary()).
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Errorf("Failed to connect: %v", err)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Errorf("Failed to ping: %v", err)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Infof("Successfully connected to %s:%s database=%s", config.Host, config.Port, config.Database)

	return NewMongoFromClient(client, config.Database), nil
}

// NewMongoFromClient wraps an already connected client
func NewMongoFromClient(client *mongo.Client, database string) *MongoDB {
	return &MongoDB{
		client:   client,
		database: client.Database(database),
	}
}

func (m *MongoDB) Close() error {
	logger := logging.WithPrefix("MongoDB")
	ctx, cancel := WithShortTimeout()
	defer cancel()

	err := m.client.Disconnect(ctx)
	if err != nil {
		logger.Errorf("Error disconnecting: %v", err)
	} else {
		logger.Info("Connection closed successfully")
	}
	return err
}

func (m *MongoDB) TestConnection(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}
	return nil
}

func (m *MongoDB) GetCollection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// DumpCollection writes every document of a collection to w as JSON lines
// (relaxed extended JSON) and returns the number written.
func (m *MongoDB) DumpCollection(ctx context.Context, name string, w io.Writer) (int, error) {
	cursor, err := m.GetCollection(name).Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to find documents in %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		line, err := bson.MarshalExtJSON(cursor.Current, false, false)
		if err != nil {
			return count, fmt.Errorf("failed to encode document: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return count, fmt.Errorf("failed to write document: %w", err)
		}
		count++
	}
	if err := cursor.Err(); err != nil {
		return count, fmt.Errorf("cursor error: %w", err)
	}
	return count, nil
}

// RestoreCollection replaces the contents of a collection with the JSON
// lines read from r, as written by DumpCollection
func (m *MongoDB) RestoreCollection(ctx context.Context, name string, r io.Reader) (int, error) {
	collection := m.GetCollection(name)
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, fmt.Errorf("failed to clear collection %s: %w", name, err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	count := 0
	batch := make([]interface{}, 0, 1000)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := collection.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch into %s: %w", name, err)
		}
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc bson.D
		if err := bson.UnmarshalExtJSON(line, false, &doc); err != nil {
			return count, fmt.Errorf("failed to decode document %d: %w", count+1, err)
		}
		batch = append(batch, doc)
		count++
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read backup: %w", err)
	}
	return count, flush()
}

// IndexBuilder is implemented by every repository that owns indexes
type IndexBuilder interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureAllIndexes creates indexes for each repository, stopping at the first failure
func EnsureAllIndexes(ctx context.Context, builders ...IndexBuilder) error {
	for _, b := range builders {
		if err := b.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
