package analytics

// Analysis types accepted by Advanced.
const (
	AnalysisComprehensive        = "comprehensive"
	AnalysisCustomerSegmentation = "customer_segmentation"
	AnalysisProductPerformance   = "product_performance"
)

// AnalysisTypes lists the supported analysis types.
var AnalysisTypes = []string{AnalysisComprehensive, AnalysisCustomerSegmentation, AnalysisProductPerformance}

// AdvancedFlag tells the caller to run the named analysis through the
// advanced analytics endpoint instead.
func AdvancedFlag(analysisType string) Result {
	return Result{"advanced_analytics": true, "analysis_type": analysisType}
}

const helpMessage = "I can help you analyze your business data! Here are some things you can ask me:"

var helpSuggestions = []string{
	"Show me all customers",
	"What is the total revenue?",
	"Who are the top customers by spending?",
	"What are the most popular products?",
	"Show me order status distribution",
	"What is the average order value?",
	"Show me monthly revenue trends",
	"How many orders are pending?",
	"Give me business insights",
	"Show me today's sales",
	"Give me advanced analytics",
	"Show me customer segmentation",
	"Analyze product performance",
}

// Help lists example questions.
func Help() Result {
	return Result{"message": helpMessage, "suggestions": append([]string(nil), helpSuggestions...)}
}

const fallbackMessage = "I can help you with questions about customers, orders, products, and sales data. " +
	"Try asking me about revenue, top customers, popular products, or business insights!"

var fallbackQueries = []string{
	"Show all customers",
	"What is the total revenue?",
	"Who are the top customers?",
	"What are the most popular products?",
	"Show me business insights",
	"How many orders are there?",
}

// Fallback answers questions no category recognized.
func Fallback() Result {
	return Result{"message": fallbackMessage, "available_queries": append([]string(nil), fallbackQueries...)}
}
