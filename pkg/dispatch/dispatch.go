package dispatch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// action runs one route. needs lists the tables the routine reads.
type action struct {
	needs []models.Table
	run   func(f *analytics.Frame, q string) analytics.Result
}

var (
	joined    = models.AllTables
	customers = []models.Table{models.TableCustomers}
	orders    = []models.Table{models.TableOrders}
	products  = []models.Table{models.TablePriceList}
)

func frame(fn func(*analytics.Frame) analytics.Result) func(*analytics.Frame, string) analytics.Result {
	return func(f *analytics.Frame, _ string) analytics.Result { return fn(f) }
}

func static(fn func() analytics.Result) func(*analytics.Frame, string) analytics.Result {
	return func(*analytics.Frame, string) analytics.Result { return fn() }
}

func flag(analysisType string) func(*analytics.Frame, string) analytics.Result {
	return func(*analytics.Frame, string) analytics.Result { return analytics.AdvancedFlag(analysisType) }
}

var actions = map[string]action{
	"top_customers_by_revenue":  {joined, frame((*analytics.Frame).TopCustomersByRevenue)},
	"top_customers_by_orders":   {joined, frame((*analytics.Frame).TopCustomersByOrders)},
	"customer_revenue":          {joined, frame((*analytics.Frame).CustomerRevenue)},
	"average_customer_spending": {joined, frame((*analytics.Frame).AverageCustomerSpending)},
	"recent_customers":          {customers, frame((*analytics.Frame).RecentCustomers)},
	"customer_count":            {customers, frame((*analytics.Frame).CustomerCount)},
	"list_customers":            {customers, frame((*analytics.Frame).ListCustomers)},
	"list_premium_customers": {customers, frame(func(f *analytics.Frame) analytics.Result {
		return f.ListCustomersByType(models.CustomerPremium)
	})},
	"list_standard_customers": {customers, frame(func(f *analytics.Frame) analytics.Result {
		return f.ListCustomersByType(models.CustomerStandard)
	})},

	"order_count":               {orders, frame((*analytics.Frame).OrderCount)},
	"pending_orders":            {orders, frame((*analytics.Frame).PendingOrders)},
	"completed_orders":          {orders, frame((*analytics.Frame).CompletedOrders)},
	"order_status_distribution": {orders, frame((*analytics.Frame).OrderStatusDistribution)},
	"average_order_value":       {joined, frame((*analytics.Frame).AverageOrderValue)},
	"total_revenue":             {joined, frame((*analytics.Frame).TotalRevenue)},

	"list_products":            {products, frame((*analytics.Frame).ListProducts)},
	"top_products_by_revenue":  {joined, frame((*analytics.Frame).TopProductsByRevenue)},
	"top_products_by_quantity": {joined, frame((*analytics.Frame).TopProductsByQuantity)},
	"category_revenue":         {joined, frame((*analytics.Frame).CategoryRevenue)},
	"category_distribution":    {joined, frame((*analytics.Frame).CategoryDistribution)},
	"average_product_price":    {joined, frame((*analytics.Frame).AverageProductPrice)},
	"highest_product_price":    {joined, frame((*analytics.Frame).HighestProductPrice)},
	"lowest_product_price":     {joined, frame((*analytics.Frame).LowestProductPrice)},
	"price_statistics":         {joined, frame((*analytics.Frame).PriceStatistics)},

	"monthly_revenue": {joined, frame((*analytics.Frame).MonthlyRevenue)},
	"daily_revenue":   {joined, frame((*analytics.Frame).DailyRevenue)},
	"revenue_growth":  {joined, frame((*analytics.Frame).RevenueGrowth)},
	"period_stats": {joined, func(f *analytics.Frame, q string) analytics.Result {
		return f.PeriodStats(WindowOf(q))
	}},

	"business_insights": {joined, frame((*analytics.Frame).BusinessInsights)},
	"data_summary": {joined, frame(func(f *analytics.Frame) analytics.Result {
		return f.Summary().Result()
	})},

	"comprehensive_analysis": {nil, flag(analytics.AnalysisComprehensive)},
	"customer_segmentation":  {nil, flag(analytics.AnalysisCustomerSegmentation)},
	"product_performance":    {nil, flag(analytics.AnalysisProductPerformance)},

	"help":        {nil, static(analytics.Help)},
	RouteFallback: {nil, static(analytics.Fallback)},
}

var windowPhrases = []struct {
	phrase string
	window analytics.Window
}{
	{"today", analytics.WindowToday},
	{"yesterday", analytics.WindowYesterday},
	{"this week", analytics.WindowThisWeek},
	{"this month", analytics.WindowThisMonth},
	{"this year", analytics.WindowThisYear},
}

// WindowOf picks the first calendar window named in the question, defaulting to today.
func WindowOf(question string) analytics.Window {
	q := strings.ToLower(question)
	for _, wp := range windowPhrases {
		if strings.Contains(q, wp.phrase) {
			return wp.window
		}
	}
	return analytics.WindowToday
}

// Dispatcher answers questions by routing them and running the matching routine.
type Dispatcher struct {
	router *Router
}

// New binds router to the aggregation routines. Every route the router can
// produce must have a routine.
func New(router *Router) (*Dispatcher, error) {
	var missing []string
	for _, name := range router.Routes() {
		if _, ok := actions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("routes without a routine: %s", strings.Join(missing, ", "))
	}
	return &Dispatcher{router: router}, nil
}

// NewDefault builds a dispatcher from the embedded vocabulary.
func NewDefault() (*Dispatcher, error) {
	v, err := DefaultVocabulary()
	if err != nil {
		return nil, err
	}
	r, err := NewRouter(v)
	if err != nil {
		return nil, err
	}
	return New(r)
}

// Router returns the dispatcher's router.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Dispatch routes question and runs the routine against f. A blank question
// returns apperrors.ErrEmptyQuery; a routine whose tables are not loaded
// returns an error wrapping apperrors.ErrDatasetUnavailable.
func (d *Dispatcher) Dispatch(f *analytics.Frame, question string) (Decision, analytics.Result, error) {
	if strings.TrimSpace(question) == "" {
		return Decision{}, nil, apperrors.ErrEmptyQuery
	}
	decision := d.router.Route(question)
	act := actions[decision.Route]
	if err := f.Data.Require(act.needs...); err != nil {
		return decision, nil, err
	}
	return decision, act.run(f, question), nil
}
