// Package reports renders analytics as human-readable text and chart specs.
package reports

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Text report types.
const (
	ReportSummary  = "summary"
	ReportCustomer = "customer"
)

// ReportTypes lists the supported text report types.
var ReportTypes = []string{ReportSummary, ReportCustomer}

const generatedLayout = "2006-01-02 15:04:05"

// Text renders the named report against f.
func Text(f *analytics.Frame, reportType string) (string, error) {
	switch reportType {
	case ReportSummary:
		return summaryReport(f), nil
	case ReportCustomer:
		return customerReport(f), nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownReportType, reportType)
}

func dollars(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

// countOf renders "1 order" or "7 orders".
func countOf(n int, noun string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return count(n) + " " + noun
}

func summaryReport(f *analytics.Frame) string {
	s := f.Summary()
	var b strings.Builder

	fmt.Fprintf(&b, "# Business Summary Report\nGenerated on: %s\n\n", f.Now.Format(generatedLayout))

	b.WriteString("## Key Metrics\n")
	fmt.Fprintf(&b, "- Total Customers: %s\n", count(s.TotalCustomers))
	fmt.Fprintf(&b, "- Total Orders: %s\n", count(s.TotalOrders))
	fmt.Fprintf(&b, "- Total Order Items: %s\n", count(s.TotalOrderItems))
	fmt.Fprintf(&b, "- Total Products: %s\n", count(s.TotalProducts))
	fmt.Fprintf(&b, "- Total Revenue: %s\n", dollars(s.TotalRevenue))
	fmt.Fprintf(&b, "- Average Order Value: %s\n\n", dollars(s.AvgOrderValue))

	b.WriteString("## Top Performers\n")
	fmt.Fprintf(&b, "- Top Customer by Orders: %s\n", s.TopCustomerName())
	fmt.Fprintf(&b, "- Top Product by Sales: %s\n\n", s.TopProductName())

	b.WriteString("## Customer Analysis\n")
	fmt.Fprintf(&b, "Premium Customers: %s\n", count(f.CountByType(models.CustomerPremium)))
	fmt.Fprintf(&b, "Standard Customers: %s\n\n", count(f.CountByType(models.CustomerStandard)))

	b.WriteString("## Order Status Distribution\n")
	statuses := f.StatusCounts()
	if statuses.Len() == 0 {
		b.WriteString("No orders\n")
	}
	for p := statuses.Oldest(); p != nil; p = p.Next() {
		fmt.Fprintf(&b, "- %s: %s\n", p.Key, countOf(p.Value, "order"))
	}
	return b.String()
}

func customerReport(f *analytics.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Customer Analysis Report\nGenerated on: %s\n\n", f.Now.Format(generatedLayout))
	b.WriteString("## Customer Spending Summary\n")

	spending := f.CustomerSpending()
	if len(spending) == 0 {
		b.WriteString("No customer purchases\n")
		return b.String()
	}

	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("Customer", "Type", "Total Spent", "Order Lines")
	for _, c := range spending {
		t.Row(c.Name, string(c.Type), dollars(c.TotalSpent), count(c.Lines))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
