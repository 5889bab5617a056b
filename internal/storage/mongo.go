package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/config"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
)

type articleDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Summary   string    `bson:"summary"`
	PageURL   string    `bson:"page_url"`
	Seq       int64     `bson:"seq"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type linkDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	Summary   string    `bson:"summary"`
	Seq       int64     `bson:"seq"`
	CreatedAt time.Time `bson:"created_at"`
}

type indexDoc struct {
	Key       string    `bson:"_id"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Counter documents in the counters collection.
const (
	articleSeqID = "articles"
	linkSeqID    = "links"
)

// MongoCatalog is a Catalog backed by three MongoDB collections. Uniqueness
// is enforced by unique indexes on title and url; index entries use the slug
// key as _id. Articles and links carry a seq drawn from a counter document,
// which orders "latest" and insertion order independently of clock
// resolution.
type MongoCatalog struct {
	client   *mongo.Client
	articles *mongo.Collection
	links    *mongo.Collection
	index    *mongo.Collection
	counters *mongo.Collection
	timeout  time.Duration
}

// OpenMongo connects to MongoDB, pings it and ensures the unique indexes.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*MongoCatalog, error) {
	timeout := cfg.TimeoutDuration()

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	counters := cfg.Collections.Counters
	if counters == "" {
		counters = "counters"
	}

	db := client.Database(cfg.Database)
	m := &MongoCatalog{
		client:   client,
		articles: db.Collection(cfg.Collections.Articles),
		links:    db.Collection(cfg.Collections.Links),
		index:    db.Collection(cfg.Collections.Index),
		counters: db.Collection(counters),
		timeout:  timeout,
	}

	if err := m.createIndexes(connectCtx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoCatalog) createIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}

	if _, err := m.articles.Indexes().CreateOne(ctx, unique("title")); err != nil {
		return fmt.Errorf("create articles title index: %w", err)
	}
	if _, err := m.articles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create articles seq index: %w", err)
	}
	if _, err := m.links.Indexes().CreateOne(ctx, unique("url")); err != nil {
		return fmt.Errorf("create links url index: %w", err)
	}
	if _, err := m.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create links seq index: %w", err)
	}
	return nil
}

// nextSeq atomically increments the named counter and returns its new value.
func (m *MongoCatalog) nextSeq(ctx context.Context, id string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s seq: %w", id, err)
	}
	return doc.Seq, nil
}

// Close disconnects the client.
func (m *MongoCatalog) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// UpsertArticle overwrites summary and page_url for title, creating the
// document on first ingestion.
func (m *MongoCatalog) UpsertArticle(ctx context.Context, title, summary, pageURL string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	seq, err := m.nextSeq(ctx, articleSeqID)
	if err != nil {
		return fmt.Errorf("upsert article %q: %w", title, err)
	}

	ts := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"summary":    summary,
			"page_url":   pageURL,
			"seq":        seq,
			"updated_at": ts,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"created_at": ts,
		},
	}
	_, err = m.articles.UpdateOne(ctx, bson.M{"title": title}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert article %q: %w", title, err)
	}
	return nil
}

// InsertLinkIfAbsent inserts the link only when no document has the same url.
// A duplicate-key error from a concurrent insert counts as "already present".
// A conflicting call still consumes a seq value; gaps are harmless.
func (m *MongoCatalog) InsertLinkIfAbsent(ctx context.Context, title, url, summary string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	seq, err := m.nextSeq(ctx, linkSeqID)
	if err != nil {
		return false, fmt.Errorf("insert link %q: %w", url, err)
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"seq":        seq,
			"title":      title,
			"summary":    summary,
			"created_at": time.Now().UTC(),
		},
	}
	res, err := m.links.UpdateOne(ctx, bson.M{"url": url}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert link %q: %w", url, err)
	}
	return res.UpsertedCount > 0, nil
}

// UpsertIndex replaces the title/url stored under key.
func (m *MongoCatalog) UpsertIndex(ctx context.Context, key, title, url string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":      title,
		"url":        url,
		"updated_at": time.Now().UTC(),
	}}
	_, err := m.index.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert index %q: %w", key, err)
	}
	return nil
}

// ListLinks returns the link catalog in insertion order.
func (m *MongoCatalog) ListLinks(ctx context.Context) ([]models.LinkEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := m.links.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []linkDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}

	links := make([]models.LinkEntry, 0, len(docs))
	for _, d := range docs {
		links = append(links, models.LinkEntry{Title: d.Title, URL: d.URL, Summary: d.Summary})
	}
	return links, nil
}

// ListIndex returns every index entry ordered by key.
func (m *MongoCatalog) ListIndex(ctx context.Context) ([]models.IndexEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.index.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []indexDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	entries := make([]models.IndexEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, models.IndexEntry{Key: d.Key, Title: d.Title, URL: d.URL})
	}
	return entries, nil
}

// GetLatestArticle returns the article with the highest seq.
func (m *MongoCatalog) GetLatestArticle(ctx context.Context) (*models.ArticleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	res := m.articles.FindOne(ctx, bson.M{}, opts)
	if err := res.Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("article: %w", ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("find latest article: %w", err)
	}

	var doc articleDoc
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode latest article: %w: %w", ErrCorruptState, err)
	}

	return &models.ArticleRecord{
		Title:     doc.Title,
		Summary:   doc.Summary,
		PageURL:   doc.PageURL,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
