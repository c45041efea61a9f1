package orders

// Reconciliation compares the stored total with one recomputed from the
// line items. A mismatch is reported, never corrected.
type Reconciliation struct {
	ProductAmount  int  `json:"product_amount"`
	ShippingFee    int  `json:"shipping_fee"`
	CouponDiscount int  `json:"coupon_discount"`
	UsedPoints     int  `json:"used_points"`
	Computed       int  `json:"computed_total"`
	Stored         int  `json:"stored_total"`
	Consistent     bool `json:"consistent"`
}

func ProductAmount(items []OrderItem) int {
	sum := 0
	for _, it := range items {
		sum += it.ProductPrice * it.Quantity
	}
	return sum
}

func Reconcile(d OrderDetail) Reconciliation {
	r := Reconciliation{
		ProductAmount:  ProductAmount(d.Items),
		ShippingFee:    deref(d.ShippingFee),
		CouponDiscount: deref(d.CouponDiscount),
		UsedPoints:     deref(d.UsedPoints),
		Stored:         d.TotalAmount,
	}
	r.Computed = r.ProductAmount + r.ShippingFee - r.CouponDiscount - r.UsedPoints
	if r.Computed < 0 {
		r.Computed = 0
	}
	r.Consistent = r.Computed == r.Stored
	return r
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
