package narrative

// Kind identifies a report family. Each kind has its own prompt, response key
// and required insight fields.
type Kind string

const (
	KindMonthlyReview Kind = "monthly_review"
	KindForesight     Kind = "foresight"
	KindProactive     Kind = "proactive"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

type contract struct {
	responseKey string
	typeField   string // "category" for monthly reviews, "type" otherwise
	temperature float32
	maxTokens   int32
}

var contracts = map[Kind]contract{
	KindMonthlyReview: {responseKey: "insights", typeField: "category", temperature: 0.2, maxTokens: 6000},
	KindForesight:     {responseKey: "foresights", typeField: "type", temperature: 0.7, maxTokens: 4000},
	KindProactive:     {responseKey: "insights", typeField: "type", temperature: 0.7, maxTokens: 4000},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := contracts[k]
	return ok
}

// ResponseKey is the top-level JSON key holding the list of insights.
func (k Kind) ResponseKey() string {
	return contracts[k].responseKey
}

// RequiredFields lists the fields an insight must carry to be kept.
func (k Kind) RequiredFields() []string {
	return []string{"title", "priority", contracts[k].typeField, "visualization", "key_metric", "card_content", "full_content"}
}
