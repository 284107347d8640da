package reports

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/dataset"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func fixtureFrame() *analytics.Frame {
	ds := testhelpers.FixtureDataset()
	return analytics.NewFrame(ds, dataset.Join(ds), testhelpers.FixtureNow, analytics.Settings{})
}

func emptyFrame() *analytics.Frame {
	return analytics.NewFrame(testhelpers.EmptyDataset(), nil, testhelpers.FixtureNow, analytics.Settings{})
}

func TestSummaryReport(t *testing.T) {
	report, err := Text(fixtureFrame(), ReportSummary)
	require.NoError(t, err)

	for _, want := range []string{
		"# Business Summary Report",
		"Generated on: 2025-02-25 15:00:00",
		"- Total Customers: 10",
		"- Total Order Items: 17",
		"- Total Revenue: $193.00",
		"- Average Order Value: $21.44",
		"- Top Customer by Orders: Alice Ng",
		"- Top Product by Sales: Shirt Laundry",
		"Premium Customers: 4",
		"Standard Customers: 6",
		"- Completed: 7 orders",
		"- Ready: 1 order\n",
	} {
		assert.Contains(t, report, want)
	}
}

func TestCustomerReport(t *testing.T) {
	report, err := Text(fixtureFrame(), ReportCustomer)
	require.NoError(t, err)

	assert.Contains(t, report, "# Customer Analysis Report")
	assert.Contains(t, report, "Total Spent")
	assert.Contains(t, report, "$73.50")

	alice := strings.Index(report, "Alice Ng")
	carmen := strings.Index(report, "Carmen Diaz")
	hugo := strings.Index(report, "Hugo Lambert")
	require.True(t, alice > 0 && carmen > 0 && hugo > 0)
	assert.Less(t, alice, carmen)
	assert.Less(t, carmen, hugo)
	assert.NotContains(t, report, "Ines Costa", "customers without purchases are not listed")
}

func TestTextReports_EmptyDataset(t *testing.T) {
	report, err := Text(emptyFrame(), ReportSummary)
	require.NoError(t, err)
	assert.Contains(t, report, "- Total Revenue: $0.00")
	assert.Contains(t, report, "- Top Customer by Orders: N/A")
	assert.Contains(t, report, "No orders")

	report, err = Text(emptyFrame(), ReportCustomer)
	require.NoError(t, err)
	assert.Contains(t, report, "No customer purchases")
}

func TestText_UnknownType(t *testing.T) {
	_, err := Text(fixtureFrame(), "weekly")
	assert.ErrorIs(t, err, apperrors.ErrUnknownReportType)
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$1,234,567.50", dollars(1234567.5))
	assert.Equal(t, "$0.00", dollars(0))
	assert.Equal(t, "1 order", countOf(1, "order"))
	assert.Equal(t, "2 categories", countOf(2, "category"))
}

func TestBuildChart(t *testing.T) {
	f := fixtureFrame()

	tests := []struct {
		chartType string
		kind      string
		title     string
		length    int
		first     Point
	}{
		{ChartRevenueByCustomer, KindBar, "Revenue by Customer", 8, Point{"Alice Ng", 73.5}},
		{ChartOrderStatus, KindPie, "Order Status Distribution", 3, Point{"Completed", 7}},
		{ChartProductSales, KindBar, "Top 10 Products by Sales Volume", 5, Point{"Shirt Laundry", 4}},
		{ChartCategoryRevenue, KindPie, "Revenue by Product Category", 3, Point{"Dry Clean", 69}},
	}
	for _, tt := range tests {
		t.Run(tt.chartType, func(t *testing.T) {
			c, err := BuildChart(f, tt.chartType)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.title, c.Title)
			require.Len(t, c.Series, tt.length)
			assert.Equal(t, tt.first, c.Series[0])
		})
	}
}

func TestBuildChart_Axes(t *testing.T) {
	c, err := BuildChart(fixtureFrame(), ChartProductSales)
	require.NoError(t, err)
	assert.Equal(t, OrientHorizontal, c.Orientation)
	assert.Equal(t, "Number of Sales", c.XAxisTitle)
	assert.Equal(t, "Product", c.YAxisTitle)

	c, err = BuildChart(fixtureFrame(), ChartRevenueByCustomer)
	require.NoError(t, err)
	assert.Equal(t, "Customer", c.XAxisTitle)
	assert.Equal(t, "Total Revenue ($)", c.YAxisTitle)
}

func TestChartEncode(t *testing.T) {
	c, err := BuildChart(fixtureFrame(), ChartOrderStatus)
	require.NoError(t, err)

	encoded, err := c.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
	assert.Equal(t, "pie", decoded["kind"])
	assert.NotContains(t, decoded, "x_axis_title")
}

func TestBuildChart_EmptyDataset(t *testing.T) {
	for _, ct := range ChartTypes {
		c, err := BuildChart(emptyFrame(), ct)
		require.NoError(t, err, ct)
		assert.Empty(t, c.Series, ct)
		encoded, err := c.Encode()
		require.NoError(t, err)
		assert.Contains(t, encoded, `"series":[]`)
	}
}

func TestBuildChart_UnknownType(t *testing.T) {
	_, err := BuildChart(fixtureFrame(), "revenue_trend")
	assert.ErrorIs(t, err, apperrors.ErrUnknownChartType)
}
