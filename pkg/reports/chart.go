package reports

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// Chart types.
const (
	ChartRevenueByCustomer = "revenue_by_customer"
	ChartOrderStatus       = "order_status"
	ChartProductSales      = "product_sales"
	ChartCategoryRevenue   = "category_revenue"
)

// ChartTypes lists the supported chart types.
var ChartTypes = []string{ChartRevenueByCustomer, ChartOrderStatus, ChartProductSales, ChartCategoryRevenue}

// Chart kinds and orientations.
const (
	KindBar          = "bar"
	KindPie          = "pie"
	OrientVertical   = "v"
	OrientHorizontal = "h"
)

const productSalesLimit = 10

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a declarative chart description. Rendering is left to the client.
type Chart struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Orientation string  `json:"orientation,omitempty"`
	XAxisTitle  string  `json:"x_axis_title,omitempty"`
	YAxisTitle  string  `json:"y_axis_title,omitempty"`
	Series      []Point `json:"series"`
}

// Encode serializes the chart to a JSON string.
func (c Chart) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart: %w", err)
	}
	return string(b), nil
}

// BuildChart builds the named chart from f.
func BuildChart(f *analytics.Frame, chartType string) (Chart, error) {
	switch chartType {
	case ChartRevenueByCustomer:
		return Chart{
			Kind:        KindBar,
			Title:       "Revenue by Customer",
			Orientation: OrientVertical,
			XAxisTitle:  "Customer",
			YAxisTitle:  "Total Revenue ($)",
			Series:      points(f.RevenueByCustomer()),
		}, nil
	case ChartOrderStatus:
		return Chart{
			Kind:   KindPie,
			Title:  "Order Status Distribution",
			Series: points(f.StatusCounts()),
		}, nil
	case ChartProductSales:
		return Chart{
			Kind:        KindBar,
			Title:       fmt.Sprintf("Top %d Products by Sales Volume", productSalesLimit),
			Orientation: OrientHorizontal,
			XAxisTitle:  "Number of Sales",
			YAxisTitle:  "Product",
			Series:      points(f.ProductSales(productSalesLimit)),
		}, nil
	case ChartCategoryRevenue:
		return Chart{
			Kind:   KindPie,
			Title:  "Revenue by Product Category",
			Series: points(f.RevenueByCategory()),
		}, nil
	}
	return Chart{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownChartType, chartType)
}

func points[V int | float64](m *orderedmap.OrderedMap[string, V]) []Point {
	out := make([]Point, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, Point{Label: p.Key, Value: float64(p.Value)})
	}
	return out
}
