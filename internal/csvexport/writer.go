package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/order"
)

// excludedProductCode marks internal adjustment lines that never reach the
// fulfillment system.
const excludedProductCode = "9999"

// headers is the fixed 55-column fulfillment layout.
var headers = []string{
	"受注番号", "受注日", "受注チャネル", "受注担当者メール", "受注担当者名",
	"注文者氏名", "注文者氏名カナ", "注文者電話番号", "注文者メール", "注文者郵便番号",
	"注文者都道府県", "注文者住所１", "注文者住所２", "注文者会社名", "注文者部署名",
	"支払方法", "受注メモ", "明細行番号", "商品コード", "商品名",
	"SKU", "単価（税込）", "数量", "明細金額（税込）", "お届け先氏名",
	"お届け先氏名カナ", "お届け先電話番号", "お届け先郵便番号", "お届け先都道府県", "お届け先住所１",
	"お届け先住所２", "お届け先会社名", "お届け先部署名", "お届け希望日", "お届け時間帯",
	"配送方法", "送料（税込）", "配送メモ", "熨斗あり", "熨斗位置",
	"熨斗種類（選択）", "熨斗種類（自由入力）", "熨斗表書き", "熨斗名入れ", "ギフト包装",
	"ラッピング種別", "ラッピング料（税込）", "メッセージカード", "明細メモ", "受注小計（税込）",
	"受注送料合計（税込）", "受注ラッピング料合計（税込）", "手数料合計（税込）", "値引き（税込）", "受注合計（税込）",
}

func money(v calc.Money) string {
	return strconv.FormatInt(v, 10)
}

func flag(b bool) string {
	if b {
		return "あり"
	}
	return "なし"
}

// WriteOrders renders the orders as a UTF-8 BOM + CRLF CSV, one row per detail
// line. Lines carrying the excluded product code are dropped; orders left with
// no lines are skipped entirely. Returns the number of rows written.
func WriteOrders(w io.Writer, orders []order.Order, operator common.Operator) (int, error) {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(headers); err != nil {
		return 0, err
	}

	rows := 0
	for _, o := range orders {
		details := make([]order.Detail, 0, len(o.Details))
		for _, d := range o.Details {
			if d.ProductCode == excludedProductCode {
				continue
			}
			details = append(details, d)
		}
		if len(details) == 0 {
			continue
		}

		// The discount is exported as a negative amount.
		discount := calc.Money(0)
		if o.Discount > 0 {
			discount = -o.Discount
		}

		for _, d := range details {
			deliveryDate := ""
			if d.DeliveryDate != nil {
				deliveryDate = d.DeliveryDate.Format("2006-01-02")
			}
			row := []string{
				o.OrderNumber,
				o.CreatedAt.Format("2006-01-02 15:04:05"),
				"電話",
				operator.Email,
				operator.Name,
				o.OrdererName,
				o.OrdererKana,
				o.OrdererPhone,
				"",
				o.OrdererPostal,
				o.OrdererPrefecture,
				o.OrdererCity + o.OrdererAddress1,
				o.OrdererAddress2,
				"",
				"",
				string(o.PaymentMethod),
				o.Notes,
				strconv.Itoa(d.LineIndex + 1),
				d.ProductCode,
				d.ProductName,
				"",
				money(d.UnitPrice),
				strconv.Itoa(d.Quantity),
				money(d.LineTotal),
				d.RecipientName,
				"",
				d.RecipientPhone,
				d.RecipientPostal,
				d.RecipientPref,
				d.RecipientCity + d.RecipientAddr1,
				d.RecipientAddr2,
				"",
				"",
				deliveryDate,
				"",
				"",
				money(d.ShippingFee),
				"",
				flag(d.NoshiType != calc.NoshiNone),
				"",
				d.NoshiType,
				"",
				"",
				"",
				flag(d.WrappingType == calc.WrappingFull),
				d.WrappingType,
				money(d.WrappingFee),
				d.Message,
				"",
				money(o.Subtotal),
				money(o.ShippingFee),
				money(o.WrappingFee),
				money(o.PaymentFee),
				money(discount),
				money(o.TotalAmount),
			}
			if err := cw.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}
	cw.Flush()
	return rows, cw.Error()
}
