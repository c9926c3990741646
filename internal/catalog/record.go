package catalog

// Record is one catalog entry. Price and Rating are kept as the display strings
// found in the data file; SimilarityScore is only set on records returned by the
// recommendation service.
type Record struct {
	Name                    string  `json:"name"`
	Price                   string  `json:"price"`
	Rating                  string  `json:"rating"`
	Category                string  `json:"category,omitempty"`
	Description             string  `json:"description,omitempty"`
	PreprocessedDescription string  `json:"preprocessed_description,omitempty"`
	SimilarityScore         float64 `json:"similarity_score"`
}

// Column names recognised in the data file header. Matching is case-sensitive.
const (
	ColumnName                    = "name"
	ColumnPrice                   = "price"
	ColumnRating                  = "rating"
	ColumnCategory                = "category"
	ColumnDescription             = "description"
	ColumnSimilarityScore         = "similarity_score"
	ColumnPreprocessedDescription = "preprocessed_description"
)
