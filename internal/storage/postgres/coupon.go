package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coupon-engine/internal/domain/coupon"
)

const (
	createCouponSQL = `INSERT INTO coupons (kind, details, active)
		VALUES ($1, $2, $3) RETURNING id`

	getCouponSQL = `SELECT id, kind, details, active FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT id, kind, details, active FROM coupons
		ORDER BY id OFFSET $1 LIMIT $2`

	listActiveCouponsSQL = `SELECT id, kind, details, active FROM coupons
		WHERE active = TRUE ORDER BY id`

	updateCouponSQL = `UPDATE coupons
		SET kind = $2, details = $3, active = $4, updated_at = now()
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	upsertCouponByRefSQL = `INSERT INTO coupons (kind, details, active, external_ref)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_ref) DO UPDATE
		SET kind = EXCLUDED.kind, details = EXCLUDED.details,
			active = EXCLUDED.active, updated_at = now()`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL. Coupon
// parameters are stored as a kind-discriminated JSONB column.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create persists a new coupon and assigns its ID.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	details, err := c.MarshalDetails()
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, createCouponSQL, string(c.Kind), details, c.Active)
	if err := row.Scan(&c.ID); err != nil {
		return fmt.Errorf("creating coupon: %w", err)
	}
	return nil
}

// Get returns a single coupon by ID, including inactive ones.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) Get(ctx context.Context, id int64) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %d: %w", id, err)
	}
	return &c, nil
}

// List pages over every stored coupon ordered by ID, inactive ones included.
func (r *CouponRepository) List(ctx context.Context, skip, limit int) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// ListActive returns the active coupons ordered by ID. This is the snapshot
// the discount engine evaluates carts against.
func (r *CouponRepository) ListActive(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listActiveCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Update replaces the stored coupon.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	details, err := c.MarshalDetails()
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateCouponSQL, c.ID, string(c.Kind), details, c.Active)
	if err != nil {
		return fmt.Errorf("updating coupon %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes the coupon.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// UpsertByRef inserts or replaces a coupon keyed by an external reference,
// used by the bulk importer to make repeated imports idempotent.
func (r *CouponRepository) UpsertByRef(ctx context.Context, ref string, c *coupon.Coupon) error {
	details, err := c.MarshalDetails()
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, upsertCouponByRefSQL, string(c.Kind), details, c.Active, ref); err != nil {
		return fmt.Errorf("upserting coupon %q: %w", ref, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c       coupon.Coupon
		kind    string
		details []byte
	)
	if err := row.Scan(&c.ID, &kind, &details, &c.Active); err != nil {
		return coupon.Coupon{}, err
	}
	if err := c.UnmarshalDetails(coupon.Kind(kind), details); err != nil {
		return coupon.Coupon{}, fmt.Errorf("decoding coupon %d: %w", c.ID, err)
	}
	return c, nil
}
