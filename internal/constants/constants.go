package constants

// Queue names
const (
	QueueDefault = "default"
)

// Async task types
const (
	TaskCardDepletedEmail = "card:depleted_email"
)

// PinAlphabet characters a scratch card PIN is drawn from. Uppercase
// alphanumerics only: the PIN is printed and typed back by hand.
const PinAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCardUses uses granted to a card when config is silent
const DefaultCardUses = 3

// MaxGenerateBatchSize upper bound for one bulk generation call
const MaxGenerateBatchSize = 100

// PinGenerationRetryFactor bounds the uniqueness loop at factor×quantity
// candidate draws before giving up with a generation-exhausted error.
const PinGenerationRetryFactor = 10

// Export formats for unused-card dumps
const (
	ExportFormatCSV = "csv"
	ExportFormatTXT = "txt"
)
