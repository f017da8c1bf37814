// Package mirror pushes products and sales to a remote MongoDB database and
// reads them back. Every call is a single round trip with no retry.
package mirror

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"retail-ledger/internal/config"
	"retail-ledger/internal/domain"
)

const (
	ProductsCollection = "products"
	SalesCollection    = "sales"

	serverSelectionTimeout = 5 * time.Second
)

type Mongo struct {
	client   *mongo.Client
	products *mongo.Collection
	sales    *mongo.Collection
	logger   *zap.Logger
}

// Connect dials the mirror and verifies it is reachable
func Connect(ctx context.Context, cfg config.MirrorConfig, logger *zap.Logger) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mirror: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mirror: %w", err)
	}

	logger.Info("Connected to remote mirror", zap.String("database", cfg.Database))
	return New(client, cfg.Database, logger), nil
}

func New(client *mongo.Client, database string, logger *zap.Logger) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:   client,
		products: db.Collection(ProductsCollection),
		sales:    db.Collection(SalesCollection),
		logger:   logger,
	}
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// FetchProducts returns every product document
func (m *Mongo) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	cursor, err := m.products.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]domain.Product, len(docs))
	for i, doc := range docs {
		products[i] = doc.toDomain()
	}
	return products, nil
}

// PushProduct merges the product into its document, creating it if needed.
// _id comes from the filter and is left out of $set.
func (m *Mongo) PushProduct(ctx context.Context, p domain.Product) error {
	doc := newProductDocument(p)
	doc.ID = ""

	_, err := m.products.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to push product %s: %w", p.ID, err)
	}
	return nil
}

// PatchQuantity updates only currentQuantity of an existing document
func (m *Mongo) PatchQuantity(ctx context.Context, productID string, quantity int) error {
	_, err := m.products.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"currentQuantity": quantity}},
	)
	if err != nil {
		return fmt.Errorf("failed to patch quantity of %s: %w", productID, err)
	}
	return nil
}

// FetchSales returns every sale document
func (m *Mongo) FetchSales(ctx context.Context) ([]domain.Sale, error) {
	cursor, err := m.sales.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}

	var docs []saleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}

	sales := make([]domain.Sale, len(docs))
	for i, doc := range docs {
		sales[i] = doc.toDomain()
	}
	return sales, nil
}

// PushSale merges the sale into its document keyed by sale id
func (m *Mongo) PushSale(ctx context.Context, s domain.Sale) error {
	doc := newSaleDocument(s)
	doc.ID = ""

	_, err := m.sales.UpdateOne(ctx,
		bson.M{"_id": s.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to push sale %s: %w", s.ID, err)
	}
	return nil
}
