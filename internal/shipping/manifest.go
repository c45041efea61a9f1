package shipping

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const SheetName = "출고"

var manifestHeader = []any{
	"주문번호", "수령인", "연락처", "우편번호", "주소", "상세주소",
	"상품", "수량", "결제금액", "배송메모", "택배사", "송장번호",
}

var amountPrinter = message.NewPrinter(language.Korean)

func productSummary(items []orders.OrderItem) (string, int) {
	parts := make([]string, 0, len(items))
	qty := 0
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x %d", it.ProductName, it.Quantity))
		qty += it.Quantity
	}
	return strings.Join(parts, ", "), qty
}

func manifestRow(d orders.OrderDetail) []any {
	summary, qty := productSummary(d.Items)
	return []any{
		d.OrderCode,
		d.RecipientName,
		d.RecipientPhone,
		d.PostalCode,
		d.Address,
		d.AddressDetail,
		summary,
		qty,
		amountPrinter.Sprintf("%d", d.TotalAmount),
		d.ShippingMemo,
		"", // courier, filled in by the warehouse
		"", // tracking number
	}
}

// RenderManifest writes one row per order under a bold header row.
func RenderManifest(details []orders.OrderDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &manifestHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, d := range details {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := manifestRow(d)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %s: %w", d.OrderCode, err)
		}
	}
	_ = f.SetColWidth(SheetName, "E", "G", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
