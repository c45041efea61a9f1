package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestReconcile(t *testing.T) {
	d := OrderDetail{
		Order: Order{
			TotalAmount:    52000,
			ShippingFee:    intp(3000),
			CouponDiscount: intp(5000),
			UsedPoints:     intp(1000),
		},
		Items: []OrderItem{
			{ProductPrice: 25000, Quantity: 2},
			{ProductPrice: 5000, Quantity: 1},
		},
	}
	r := Reconcile(d)
	assert.Equal(t, 55000, r.ProductAmount)
	assert.Equal(t, 52000, r.Computed)
	assert.True(t, r.Consistent)

	d.TotalAmount = 50000
	r = Reconcile(d)
	assert.False(t, r.Consistent)
	assert.Equal(t, 50000, r.Stored)
}

func TestReconcileNullsAndFloor(t *testing.T) {
	d := OrderDetail{
		Order: Order{TotalAmount: 0, CouponDiscount: intp(9000)},
		Items: []OrderItem{{ProductPrice: 4000, Quantity: 1}},
	}
	r := Reconcile(d)
	assert.Equal(t, 0, r.ShippingFee)
	assert.Equal(t, 0, r.UsedPoints)
	assert.Equal(t, 0, r.Computed)
	assert.True(t, r.Consistent)
}

func TestIncomplete(t *testing.T) {
	opt := "opt-1"
	assert.False(t, OrderItem{}.Incomplete())
	assert.True(t, OrderItem{OptionID: &opt}.Incomplete())
	assert.True(t, OrderItem{OptionID: &opt, OptionSettings: []OptionSetting{}}.Incomplete())
	assert.False(t, OrderItem{OptionID: &opt, OptionSettings: []OptionSetting{{Label: "기간", Value: "4주"}}}.Incomplete())
}

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{Page: 0, PageSize: 500, Sort: "drop table"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, SortCreatedAt, f.Sort)
	assert.True(t, f.Desc)

	f = ListFilter{Sort: SortTotalAmount}.Normalize()
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.False(t, f.Desc)
}
