// Package pgstore is the PostgreSQL implementation of store.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexander-kastil/talk-low-code-process/internal/db"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
)

//go:embed schema.sql
var schema string

type pgStore struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) store.Store {
	return &pgStore{pool: pool}
}

// Open connects to connString, creates missing tables and returns the store.
func Open(ctx context.Context, connString string) (store.Store, error) {
	pool, err := db.ConnectPostgres(connString)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pool.Exec schema: %w", err)
	}
	return nil
}

func (s *pgStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func (s *pgStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, base_price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Product, error) {
		var p models.Product
		err := row.Scan(&p.ID, &p.Name, &p.BasePrice)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows products: %w", err)
	}
	return products, nil
}

func (s *pgStore) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, base_price FROM products WHERE name_key = $1`,
		store.NormalizeName(name),
	).Scan(&p.ID, &p.Name, &p.BasePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("pool.QueryRow product: %w", err)
	}
	return &p, nil
}

func (s *pgStore) UpsertProduct(ctx context.Context, p *models.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, name, name_key, base_price) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, name_key = EXCLUDED.name_key, base_price = EXCLUDED.base_price`,
		p.ID, p.Name, store.NormalizeName(p.Name), p.BasePrice,
	)
	if err != nil {
		if db.IsPostgresUniqueViolation(err) {
			return fmt.Errorf("product %q: %w: %w", p.Name, store.ErrDuplicate, err)
		}
		return fmt.Errorf("pool.Exec upsert product: %w", err)
	}
	return nil
}

const supplierColumns = `s.id, s.company_name, s.contact_name, s.contact_title, s.address, s.city, s.region,
	s.postal_code, s.country, s.phone, s.email, s.home_page,
	COALESCE((SELECT array_agg(sp.product_name ORDER BY sp.position) FROM supplier_products sp WHERE sp.supplier_id = s.id), '{}')`

func scanSupplier(row pgx.Row) (models.Supplier, error) {
	var sup models.Supplier
	err := row.Scan(&sup.ID, &sup.CompanyName, &sup.ContactName, &sup.ContactTitle, &sup.Address, &sup.City,
		&sup.Region, &sup.PostalCode, &sup.Country, &sup.Phone, &sup.Email, &sup.HomePage, &sup.Products)
	return sup, err
}

func (s *pgStore) querySuppliers(ctx context.Context, where string, args ...any) ([]models.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers s `+where+` ORDER BY s.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("pool.Query suppliers: %w", err)
	}
	suppliers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Supplier, error) {
		return scanSupplier(row)
	})
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *pgStore) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.querySuppliers(ctx, "")
}

func (s *pgStore) FindSupplierByID(ctx context.Context, id int) (*models.Supplier, error) {
	sup, err := scanSupplier(s.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers s WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("pool.QueryRow supplier: %w", err)
	}
	return &sup, nil
}

func (s *pgStore) FindSuppliersByName(ctx context.Context, name string) ([]models.Supplier, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return []models.Supplier{}, nil
	}
	return s.querySuppliers(ctx, `WHERE strpos(lower(s.company_name), lower($1)) > 0`, query)
}

func (s *pgStore) FindSuppliersForProduct(ctx context.Context, product string) ([]models.Supplier, error) {
	return s.querySuppliers(ctx,
		`WHERE EXISTS (SELECT 1 FROM supplier_products sp WHERE sp.supplier_id = s.id AND sp.product_key = $1)`,
		store.NormalizeName(product),
	)
}

func (s *pgStore) UpsertSupplier(ctx context.Context, sup *models.Supplier) error {
	_, err := withTx(ctx, s.pool, func(q DBTX) (struct{}, error) {
		_, err := q.Exec(ctx, `
			INSERT INTO suppliers (id, company_name, contact_name, contact_title, address, city, region,
				postal_code, country, phone, email, home_page)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				company_name = EXCLUDED.company_name, contact_name = EXCLUDED.contact_name,
				contact_title = EXCLUDED.contact_title, address = EXCLUDED.address, city = EXCLUDED.city,
				region = EXCLUDED.region, postal_code = EXCLUDED.postal_code, country = EXCLUDED.country,
				phone = EXCLUDED.phone, email = EXCLUDED.email, home_page = EXCLUDED.home_page`,
			sup.ID, sup.CompanyName, sup.ContactName, sup.ContactTitle, sup.Address, sup.City, sup.Region,
			sup.PostalCode, sup.Country, sup.Phone, sup.Email, sup.HomePage,
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("q.Exec upsert supplier: %w", err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM supplier_products WHERE supplier_id = $1`, sup.ID); err != nil {
			return struct{}{}, fmt.Errorf("q.Exec delete supplier products: %w", err)
		}
		for i, product := range sup.Products {
			_, err := q.Exec(ctx, `
				INSERT INTO supplier_products (supplier_id, position, product_name, product_key) VALUES ($1, $2, $3, $4)
				ON CONFLICT DO NOTHING`,
				sup.ID, i, product, store.NormalizeName(product),
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("q.Exec insert supplier product: %w", err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}
	return nil
}

func (s *pgStore) InsertOffer(ctx context.Context, o *models.Offer) error {
	_, err := withTx(ctx, s.pool, func(q DBTX) (struct{}, error) {
		_, err := q.Exec(ctx, `
			INSERT INTO offers (id, supplier_id, transportation_cost, created_at, email, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, o.SupplierID, o.TransportationCost, o.Timestamp, o.Email, string(o.Status),
		)
		if err != nil {
			if db.IsPostgresUniqueViolation(err) {
				return struct{}{}, fmt.Errorf("offer %s: %w: %w", o.ID, store.ErrDuplicate, err)
			}
			return struct{}{}, fmt.Errorf("q.Exec insert offer: %w", err)
		}

		for i, d := range o.Details {
			_, err := q.Exec(ctx, `
				INSERT INTO offer_details (offer_id, line, product_name, base_price, price, requested_quantity,
					quantity, delivery_duration_days, available)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				o.ID, i, d.ProductName, d.BasePrice, d.Price, d.RequestedQuantity,
				d.Quantity, d.DeliveryDurationDays, d.Available,
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("q.Exec insert offer detail: %w", err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}
	return nil
}

func (s *pgStore) FindOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return withTx(ctx, s.pool, func(q DBTX) (*models.Offer, error) {
		var (
			o      models.Offer
			status string
		)
		err := q.QueryRow(ctx, `
			SELECT id, supplier_id, transportation_cost, created_at, email, status
			FROM offers WHERE id = $1`, id,
		).Scan(&o.ID, &o.SupplierID, &o.TransportationCost, &o.Timestamp, &o.Email, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
			}
			return nil, fmt.Errorf("q.QueryRow offer: %w", err)
		}
		if o.Status, err = models.ToOfferStatus(status); err != nil {
			return nil, fmt.Errorf("models.ToOfferStatus: %w", err)
		}
		o.Timestamp = o.Timestamp.UTC()

		rows, err := q.Query(ctx, `
			SELECT product_name, base_price, price, requested_quantity, quantity, delivery_duration_days, available
			FROM offer_details WHERE offer_id = $1 ORDER BY line`, id)
		if err != nil {
			return nil, fmt.Errorf("q.Query offer details: %w", err)
		}
		o.Details, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OfferDetail, error) {
			var d models.OfferDetail
			err := row.Scan(&d.ProductName, &d.BasePrice, &d.Price, &d.RequestedQuantity, &d.Quantity,
				&d.DeliveryDurationDays, &d.Available)
			return d, err
		})
		if err != nil {
			return nil, fmt.Errorf("pgx.CollectRows offer details: %w", err)
		}
		return &o, nil
	})
}

func (s *pgStore) AcceptOffer(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE offers SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(models.OfferStatusAccepted), string(models.OfferStatusPending),
	)
	if err != nil {
		return fmt.Errorf("pool.Exec accept offer: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("pool.QueryRow offer exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("offer %s: %w", id, store.ErrNotFound)
	}
	return fmt.Errorf("offer %s: %w", id, store.ErrOfferNotPending)
}

func (s *pgStore) InsertOrder(ctx context.Context, r *models.OrderRecord) error {
	_, err := withTx(ctx, s.pool, func(q DBTX) (struct{}, error) {
		_, err := q.Exec(ctx, `
			INSERT INTO orders (id, request_id, supplier_id, offer_id, order_date, total, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID.String(), r.RequestID, r.SupplierID, r.OfferID, r.Date, r.Total, r.CreatedAt,
		)
		if err != nil {
			if db.IsPostgresUniqueViolation(err) {
				return struct{}{}, fmt.Errorf("order %s: %w: %w", r.ID, store.ErrDuplicate, err)
			}
			return struct{}{}, fmt.Errorf("q.Exec insert order: %w", err)
		}
		for i, d := range r.Details {
			_, err := q.Exec(ctx, `
				INSERT INTO order_details (order_id, line, product_name, price, quantity) VALUES ($1, $2, $3, $4, $5)`,
				r.ID.String(), i, d.ProductName, d.Price, d.Quantity,
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("q.Exec insert order detail: %w", err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}
	return nil
}

func (s *pgStore) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query settings: %w", err)
	}
	settings, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Setting])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows settings: %w", err)
	}
	return settings, nil
}

func (s *pgStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("pool.Exec put setting: %w", err)
	}
	return nil
}

func (s *pgStore) EnsureSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`, key, value)
	if err != nil {
		return fmt.Errorf("pool.Exec ensure setting: %w", err)
	}
	return nil
}

func (s *pgStore) FindEmailTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	t := models.EmailTemplate{TemplateID: templateID, Locale: locale}
	err := s.pool.QueryRow(ctx,
		`SELECT subject, system, body FROM email_templates WHERE template_id = $1 AND locale = $2`,
		templateID, locale,
	).Scan(&t.Subject, &t.System, &t.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("template %s (%s): %w", templateID, locale, store.ErrNotFound)
		}
		return nil, fmt.Errorf("pool.QueryRow template: %w", err)
	}
	return &t, nil
}

func (s *pgStore) SaveEmailTemplate(ctx context.Context, t *models.EmailTemplate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_templates (template_id, locale, subject, system, body) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (template_id, locale) DO UPDATE SET subject = EXCLUDED.subject, system = EXCLUDED.system, body = EXCLUDED.body`,
		t.TemplateID, t.Locale, t.Subject, t.System, t.Body,
	)
	if err != nil {
		return fmt.Errorf("pool.Exec save template: %w", err)
	}
	return nil
}
