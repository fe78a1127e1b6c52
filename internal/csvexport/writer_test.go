package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/calc"
	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/csvexport"
	"github.com/kikite/backend-order/internal/order"
)

var testOperator = common.Operator{Email: "operator@example.com", Name: "受付担当"}

func sampleOrder() order.Order {
	created := time.Date(2025, 11, 1, 10, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	return order.Order{
		OrderNumber:       "TEL-20251101-0001",
		OrdererName:       "山田太郎",
		OrdererKana:       "ヤマダタロウ",
		OrdererPhone:      "09012345678",
		OrdererPostal:     "1000001",
		OrdererPrefecture: "東京都",
		OrdererCity:       "千代田区",
		OrdererAddress1:   "千代田1-1",
		PaymentMethod:     calc.PaymentCashOnDelivery,
		Discount:          500,
		Subtotal:          3600,
		ShippingFee:       880,
		WrappingFee:       305,
		PaymentFee:        330,
		TotalAmount:       4615,
		CreatedAt:         created,
		Details: []order.Detail{
			{
				LineIndex:       0,
				ProductCode:     "0001",
				ProductName:     "りんご",
				UnitPrice:       1200,
				Quantity:        3,
				LineTotal:       3600,
				RecipientName:   "佐藤花子",
				RecipientPostal: "5420076",
				RecipientPref:   "大阪府",
				RecipientCity:   "大阪市中央区",
				RecipientAddr1:  "難波5-1-60",
				NoshiType:       calc.NoshiStandard,
				WrappingType:    calc.WrappingFull,
				ShippingFee:     880,
				WrappingFee:     305,
			},
		},
	}
}

func parseCSV(t *testing.T, raw []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")
	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteOrdersLayout(t *testing.T) {
	var buf bytes.Buffer
	rows, err := csvexport.WriteOrders(&buf, []order.Order{sampleOrder()}, testOperator)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	require.Contains(t, buf.String(), "\r\n")

	records := parseCSV(t, buf.Bytes())
	require.Len(t, records, 2)
	require.Len(t, records[0], 55)
	require.Equal(t, "受注番号", records[0][0])
	require.Equal(t, "受注合計（税込）", records[0][54])

	row := records[1]
	require.Len(t, row, 55)
	require.Equal(t, "TEL-20251101-0001", row[0])
	require.Equal(t, "2025-11-01 10:30:00", row[1])
	require.Equal(t, "電話", row[2])
	require.Equal(t, "operator@example.com", row[3])
	require.Equal(t, "受付担当", row[4])
	require.Equal(t, "千代田区千代田1-1", row[11])
	require.Equal(t, "代金引換", row[15])
	require.Equal(t, "1", row[17])
	require.Equal(t, "大阪市中央区難波5-1-60", row[29])
	require.Equal(t, "あり", row[38])
	require.Equal(t, "あり", row[44])
	require.Equal(t, "305", row[46])
	require.Equal(t, "-500", row[53])
	require.Equal(t, "4615", row[54])
}

func TestWriteOrdersDropsExcludedLines(t *testing.T) {
	o := sampleOrder()
	o.Details = append(o.Details, order.Detail{
		LineIndex:   1,
		ProductCode: "9999",
		ProductName: "値引き調整",
	})

	var buf bytes.Buffer
	rows, err := csvexport.WriteOrders(&buf, []order.Order{o}, testOperator)
	require.NoError(t, err)
	require.Equal(t, 1, rows)
	require.NotContains(t, buf.String(), "9999")
}

func TestWriteOrdersSkipsOrdersWithNoExportableLines(t *testing.T) {
	excludedOnly := sampleOrder()
	excludedOnly.OrderNumber = "TEL-20251101-0002"
	excludedOnly.Details = []order.Detail{{ProductCode: "9999"}}

	var buf bytes.Buffer
	rows, err := csvexport.WriteOrders(&buf, []order.Order{sampleOrder(), excludedOnly}, testOperator)
	require.NoError(t, err)
	require.Equal(t, 1, rows)
	require.NotContains(t, buf.String(), "TEL-20251101-0002")
}

func TestWriteOrdersZeroDiscountStaysZero(t *testing.T) {
	o := sampleOrder()
	o.Discount = 0

	var buf bytes.Buffer
	_, err := csvexport.WriteOrders(&buf, []order.Order{o}, testOperator)
	require.NoError(t, err)

	records := parseCSV(t, buf.Bytes())
	require.Equal(t, "0", records[1][53])
}

func TestWriteOrdersNoshiFlagFollowsType(t *testing.T) {
	o := sampleOrder()
	o.Details[0].NoshiType = calc.NoshiNone
	o.Details[0].WrappingType = calc.WrappingSimple

	var buf bytes.Buffer
	_, err := csvexport.WriteOrders(&buf, []order.Order{o}, testOperator)
	require.NoError(t, err)

	records := parseCSV(t, buf.Bytes())
	require.Equal(t, "なし", records[1][38])
	require.Equal(t, "なし", records[1][44])
}

func TestWriteOrdersQuotesEmbeddedDelimiters(t *testing.T) {
	o := sampleOrder()
	o.Notes = "午前指定, 置き配不可"

	var buf bytes.Buffer
	_, err := csvexport.WriteOrders(&buf, []order.Order{o}, testOperator)
	require.NoError(t, err)
	require.True(t, strings.Contains(buf.String(), `"午前指定, 置き配不可"`))

	records := parseCSV(t, buf.Bytes())
	require.Equal(t, "午前指定, 置き配不可", records[1][16])
}
