package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is everything the order services need from persistence.
type Store interface {
	GetOrderStatus(ctx context.Context, orderID string) (Status, error)
	GetOrder(ctx context.Context, orderID string) (OrderDetail, error)
	GetOrdersWithItems(ctx context.Context, orderIDs []string) ([]OrderDetail, error)
	ListOptionItems(ctx context.Context, orderIDs []string) ([]OrderItem, error)
	ListOrders(ctx context.Context, f ListFilter) (Page, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	UpdateStatus(ctx context.Context, u StatusUpdate) ([]StatusChange, error)
	SetAssignedAdmin(ctx context.Context, orderID string, adminID *string) error
	SetHandlerAdmin(ctx context.Context, orderID string, adminID *string) error
	SetAdminMemo(ctx context.Context, orderID string, memo *string) error
	SaveShipping(ctx context.Context, orderID string, info ShippingInfo) (Order, error)
}

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_code, customer_name, customer_email, customer_phone,
	recipient_name, recipient_phone, postal_code, address, address_detail, shipping_memo,
	total_amount, shipping_fee, coupon_discount, used_points,
	consultation_status, assigned_admin_id, handler_admin_id, handled_at, admin_memo,
	shipping_company, tracking_number, shipped_at, payment_id, created_at, updated_at`

const itemColumns = `id, order_id, product_id, product_name, product_price, quantity,
	option_id, option_name, selected_option_settings`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.OrderCode, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.RecipientName, &o.RecipientPhone, &o.PostalCode, &o.Address, &o.AddressDetail, &o.ShippingMemo,
		&o.TotalAmount, &o.ShippingFee, &o.CouponDiscount, &o.UsedPoints,
		&status, &o.AssignedAdminID, &o.HandlerAdminID, &o.HandledAt, &o.AdminMemo,
		&o.ShippingCompany, &o.TrackingNumber, &o.ShippedAt, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func scanItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	var settings []byte
	if err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductPrice, &it.Quantity,
		&it.OptionID, &it.OptionName, &settings); err != nil {
		return it, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &it.OptionSettings); err != nil {
			return it, fmt.Errorf("decode option settings of item %s: %w", it.ID, err)
		}
	}
	return it, nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT consultation_status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (OrderDetail, error) {
	details, err := r.GetOrdersWithItems(ctx, []string{orderID})
	if err != nil {
		return OrderDetail{}, err
	}
	if len(details) == 0 {
		return OrderDetail{}, ErrOrderNotFound
	}
	return details[0], nil
}

// GetOrdersWithItems reads orders and their items from one read-only snapshot.
func (r *Repo) GetOrdersWithItems(ctx context.Context, orderIDs []string) ([]OrderDetail, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ANY($1) ORDER BY created_at, id`, orderIDs)
	if err != nil {
		return nil, err
	}
	var out []OrderDetail
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[o.ID] = len(out)
		out = append(out, OrderDetail{Order: o})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	items, err := queryItems(ctx, tx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.OrderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, tx.Commit(ctx)
}

func (r *Repo) ListOptionItems(ctx context.Context, orderIDs []string) ([]OrderItem, error) {
	return queryItems(ctx, r.DB, `SELECT `+itemColumns+` FROM order_items
                                  WHERE order_id = ANY($1) AND option_id IS NOT NULL`, orderIDs)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, sql string, args ...any) ([]OrderItem, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) ListOrders(ctx context.Context, f ListFilter) (Page, error) {
	f = f.Normalize()

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != nil {
		where = append(where, "consultation_status = "+arg(string(*f.Status)))
	}
	switch f.Assigned {
	case "":
	case AssignedNone:
		where = append(where, "assigned_admin_id IS NULL")
	default:
		where = append(where, "assigned_admin_id = "+arg(f.Assigned))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, fmt.Sprintf(
			"(order_code ILIKE %[1]s OR customer_email ILIKE %[1]s OR customer_name ILIKE %[1]s OR customer_phone ILIKE %[1]s)", p))
	}
	if f.From != nil {
		where = append(where, "created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "created_at < "+arg(*f.To))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	page := Page{Page: f.Page, PageSize: f.PageSize}
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+cond, args...).Scan(&page.Total); err != nil {
		return Page{}, err
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	// f.Sort is whitelisted by Normalize.
	sql := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY %s %s, id %s LIMIT %s OFFSET %s`,
		orderColumns, cond, f.Sort, dir, dir, arg(f.PageSize), arg((f.Page-1)*f.PageSize))

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	page.Orders = []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return Page{}, err
		}
		page.Orders = append(page.Orders, o)
	}
	return page, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *Repo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT consultation_status, COUNT(*) FROM orders GROUP BY consultation_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		out[s] = 0
	}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[Status(s)] = n
	}
	return out, rows.Err()
}

// UpdateStatus moves every listed order still in u.From (any status when empty)
// to u.To and writes one history row per real change, all in one transaction.
func (r *Repo) UpdateStatus(ctx context.Context, u StatusUpdate) ([]StatusChange, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		WITH prev AS (
			SELECT id, consultation_status FROM orders
			WHERE id = ANY($1)
			  AND ($2::text = '' OR consultation_status = $2::text)
			  AND (cardinality($4::text[]) = 0 OR consultation_status = ANY($4::text[]))
			FOR UPDATE
		)
		UPDATE orders o SET consultation_status = $3, updated_at = now()
		FROM prev WHERE o.id = prev.id
		RETURNING o.id, prev.consultation_status`,
		u.OrderIDs, string(u.From), string(u.To), statusStrings(u.FromAnyOf))
	if err != nil {
		return nil, err
	}
	var changes []StatusChange
	for rows.Next() {
		var id, from string
		if err := rows.Scan(&id, &from); err != nil {
			rows.Close()
			return nil, err
		}
		changes = append(changes, StatusChange{OrderID: id, From: Status(from), To: u.To})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var ids, froms []string
	for _, c := range changes {
		if c.From == c.To {
			continue
		}
		ids = append(ids, c.OrderID)
		froms = append(froms, string(c.From))
	}
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_status_history(order_id, from_status, to_status, actor_admin_id, reason)
			SELECT unnest($1::text[]), unnest($2::text[]), $3, NULLIF($4, ''), $5`,
			ids, froms, string(u.To), u.ActorID, u.Reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return changes, nil
}

// statusStrings never returns nil so the array parameter is '{}' rather than NULL.
func statusStrings(ss []Status) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, string(s))
	}
	return out
}

func (r *Repo) execOne(ctx context.Context, sql string, args ...any) error {
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) SetAssignedAdmin(ctx context.Context, orderID string, adminID *string) error {
	return r.execOne(ctx, `UPDATE orders SET assigned_admin_id=$2, updated_at=now() WHERE id=$1`, orderID, adminID)
}

// SetHandlerAdmin stamps handled_at when the handler changes to someone new.
// Clearing the handler keeps the previous handled_at.
func (r *Repo) SetHandlerAdmin(ctx context.Context, orderID string, adminID *string) error {
	return r.execOne(ctx, `
		UPDATE orders SET
			handled_at = CASE
				WHEN $2::text IS NOT NULL AND handler_admin_id IS DISTINCT FROM $2::text THEN now()
				ELSE handled_at END,
			handler_admin_id = $2::text,
			updated_at = now()
		WHERE id = $1`, orderID, adminID)
}

func (r *Repo) SetAdminMemo(ctx context.Context, orderID string, memo *string) error {
	return r.execOne(ctx, `UPDATE orders SET admin_memo=$2, updated_at=now() WHERE id=$1`, orderID, memo)
}

func (r *Repo) SaveShipping(ctx context.Context, orderID string, info ShippingInfo) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET
			shipped_at = CASE
				WHEN COALESCE(tracking_number, '') = '' AND $3::text <> '' THEN now()
				ELSE shipped_at END,
			shipping_company = $2,
			tracking_number = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, orderID, info.Company, info.TrackingNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}
