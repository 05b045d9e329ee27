package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldBudgetID    = "budget_id"
	FieldTxnID       = "transaction_id"
	FieldAmountCents = "amount_cents"
	FieldTxnType     = "transaction_type"
	FieldPercentage  = "percentage"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentAuth        = "auth"
	ComponentAccount     = "account"
	ComponentCategory    = "category"
	ComponentBudget      = "budget"
	ComponentTransaction = "transaction"
	ComponentAnalytics   = "analytics"
	ComponentRecurring   = "recurring"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentRateLimit   = "rate_limit"
	ComponentTrace       = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSearch   = "search"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
