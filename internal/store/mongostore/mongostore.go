// Package mongostore is the MongoDB implementation of store.Store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alexander-kastil/talk-low-code-process/internal/db"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

const (
	productsCollection       = "products"
	suppliersCollection      = "suppliers"
	offersCollection         = "offers"
	ordersCollection         = "orders"
	settingsCollection       = "settings"
	emailTemplatesCollection = "email_templates"
)

// Collections lists every collection the store writes to.
var Collections = []string{
	productsCollection,
	suppliersCollection,
	offersCollection,
	ordersCollection,
	settingsCollection,
	emailTemplatesCollection,
}

// productDoc stores the normalized name next to the display name so lookups hit an index.
type productDoc struct {
	models.Product `bson:",inline"`
	NameKey        string `bson:"name_key"`
}

type supplierDoc struct {
	models.Supplier `bson:",inline"`
	ProductKeys     []string `bson:"product_keys"`
}

type settingDoc struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// New returns a store on an existing database handle. The client must have been created
// with db.ClientOptions so that money is encoded as Decimal128.
func New(database *mongo.Database) store.Store {
	return &mongoStore{client: database.Client(), db: database}
}

// Open connects to uri, ensures indexes and returns the store.
func Open(ctx context.Context, uri, dbName string) (store.Store, error) {
	client, database, err := db.ConnectDB(uri, dbName)
	if err != nil {
		return nil, err
	}
	if err := EnsureIndexes(ctx, database); err != nil {
		_ = db.DisconnectDB(client)
		return nil, err
	}
	return New(database), nil
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "name_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		suppliersCollection: {
			{Keys: bson.D{{Key: "product_keys", Value: 1}}},
		},
		emailTemplatesCollection: {
			{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "locale", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return db.DisconnectDB(s.client)
}

func (s *mongoStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.db.Collection(productsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return lo.Map(docs, func(d productDoc, _ int) models.Product { return d.Product }), nil
}

func (s *mongoStore) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var doc productDoc
	err := s.db.Collection(productsCollection).FindOne(ctx, bson.M{"name_key": store.NormalizeName(name)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("find product %q: %w", name, err)
	}
	return &doc.Product, nil
}

func (s *mongoStore) UpsertProduct(ctx context.Context, p *models.Product) error {
	doc := productDoc{Product: *p, NameKey: store.NormalizeName(p.Name)}
	_, err := s.db.Collection(productsCollection).ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return fmt.Errorf("product %q: %w: %w", p.Name, store.ErrDuplicate, err)
		}
		return fmt.Errorf("upsert product %q: %w", p.Name, err)
	}
	return nil
}

func (s *mongoStore) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.findSuppliers(ctx, bson.M{})
}

func (s *mongoStore) FindSupplierByID(ctx context.Context, id int) (*models.Supplier, error) {
	var doc supplierDoc
	err := s.db.Collection(suppliersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("find supplier %d: %w", id, err)
	}
	return &doc.Supplier, nil
}

func (s *mongoStore) FindSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return []models.Supplier{}, nil
	}
	return s.findSuppliers(ctx, bson.M{
		"company_name": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	})
}

func (s *mongoStore) FindSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error) {
	return s.findSuppliers(ctx, bson.M{"product_keys": store.NormalizeName(product)})
}

func (s *mongoStore) findSuppliers(ctx context.Context, filter bson.M) ([]models.Supplier, error) {
	cursor, err := s.db.Collection(suppliersCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find suppliers: %w", err)
	}
	var docs []supplierDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode suppliers: %w", err)
	}
	return lo.Map(docs, func(d supplierDoc, _ int) models.Supplier { return d.Supplier }), nil
}

func (s *mongoStore) UpsertSupplier(ctx context.Context, sup *models.Supplier) error {
	doc := supplierDoc{
		Supplier:    *sup,
		ProductKeys: lo.Map(sup.Products, func(p string, _ int) string { return store.NormalizeName(p) }),
	}
	_, err := s.db.Collection(suppliersCollection).ReplaceOne(ctx, bson.M{"_id": sup.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert supplier %d: %w", sup.ID, err)
	}
	return nil
}

func (s *mongoStore) InsertOffer(ctx context.Context, o *models.Offer) error {
	if _, err := s.db.Collection(offersCollection).InsertOne(ctx, o); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return fmt.Errorf("offer %s: %w: %w", o.ID, store.ErrDuplicate, err)
		}
		return fmt.Errorf("insert offer %s: %w", o.ID, err)
	}
	return nil
}

func (s *mongoStore) FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.Collection(offersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("find offer %s: %w", id, err)
	}
	return &offer, nil
}

func (s *mongoStore) AcceptOffer(ctx context.Context, id uuid.UUID) error {
	collection := s.db.Collection(offersCollection)
	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OfferStatusPending},
		bson.M{"$set": bson.M{"status": models.OfferStatusAccepted}},
	)
	if err != nil {
		return fmt.Errorf("accept offer %s: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the offer does not exist or someone else accepted it first.
	n, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count offer %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
	}
	return fmt.Errorf("offer %s: %w", id, store.ErrOfferNotPending)
}

func (s *mongoStore) InsertOrder(ctx context.Context, r *models.OrderRecord) error {
	if _, err := s.db.Collection(ordersCollection).InsertOne(ctx, r); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return fmt.Errorf("order %s: %w: %w", r.ID, store.ErrDuplicate, err)
		}
		return fmt.Errorf("insert order %s: %w", r.ID, err)
	}
	return nil
}

func (s *mongoStore) ListSettings(ctx context.Context) ([]models.Setting, error) {
	cursor, err := s.db.Collection(settingsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	var docs []settingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return lo.Map(docs, func(d settingDoc, _ int) models.Setting {
		return models.Setting{Key: d.Key, Value: d.Value}
	}), nil
}

func (s *mongoStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (s *mongoStore) EnsureSetting(ctx context.Context, key, value string) error {
	_, err := s.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure setting %s: %w", key, err)
	}
	return nil
}

func (s *mongoStore) FindEmailTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	filter := bson.M{
		"template_id": templateID,
		"locale":      locale,
	}

	var template models.EmailTemplate
	err := s.db.Collection(emailTemplatesCollection).FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("template %s (%s): %w", templateID, locale, store.ErrNotFound)
		}
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}
	return &template, nil
}

func (s *mongoStore) SaveEmailTemplate(ctx context.Context, t *models.EmailTemplate) error {
	filter := bson.M{
		"template_id": t.TemplateID,
		"locale":      t.Locale,
	}
	_, err := s.db.Collection(emailTemplatesCollection).UpdateOne(ctx, filter, bson.M{"$set": t}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}
