package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/price"
)

// Request is one recommendation query: the catalog position of the selected
// record and the price limit.
type Request struct {
	Index    int
	MaxPrice price.Bound
}

// Unbounded selects how an unbounded price limit is written on the wire.
type Unbounded string

const (
	// UnboundedInfinity writes the bare token Infinity. Python's json module
	// decodes it as float('inf').
	UnboundedInfinity Unbounded = "infinity"
	// UnboundedNull writes null.
	UnboundedNull Unbounded = "null"
	// UnboundedOmit leaves maxPrice out so the service applies its own default.
	UnboundedOmit Unbounded = "omit"
	// UnboundedNumber writes a large configured number.
	UnboundedNumber Unbounded = "number"
)

// DefaultUnboundedValue is sent for UnboundedNumber when no value is configured.
const DefaultUnboundedValue = 1e9

// ParseUnbounded validates a mode name. Empty selects UnboundedInfinity.
func ParseUnbounded(s string) (Unbounded, error) {
	switch Unbounded(s) {
	case "":
		return UnboundedInfinity, nil
	case UnboundedInfinity, UnboundedNull, UnboundedOmit, UnboundedNumber:
		return Unbounded(s), nil
	default:
		return "", fmt.Errorf("unknown unbounded price mode %q", s)
	}
}

// encodeRequest writes the JSON body by hand because encoding/json refuses to
// emit the Infinity token.
func encodeRequest(req Request, mode Unbounded, unboundedValue float64) []byte {
	var b bytes.Buffer
	b.WriteString(`{"index":`)
	b.WriteString(strconv.Itoa(req.Index))

	if !req.MaxPrice.Unbounded {
		b.WriteString(`,"maxPrice":`)
		b.WriteString(strconv.Itoa(req.MaxPrice.Value))
		b.WriteByte('}')
		return b.Bytes()
	}

	switch mode {
	case UnboundedOmit:
	case UnboundedNull:
		b.WriteString(`,"maxPrice":null`)
	case UnboundedNumber:
		if unboundedValue <= 0 {
			unboundedValue = DefaultUnboundedValue
		}
		b.WriteString(`,"maxPrice":`)
		b.WriteString(strconv.FormatFloat(unboundedValue, 'f', -1, 64))
	default:
		b.WriteString(`,"maxPrice":Infinity`)
	}
	b.WriteByte('}')
	return b.Bytes()
}

// wireRecord mirrors one element of the response array. The service derives its
// rows from a numeric dataframe, so price and rating may arrive as numbers.
type wireRecord struct {
	Name                    displayString `json:"name"`
	Price                   displayString `json:"price"`
	Rating                  displayString `json:"rating"`
	Category                displayString `json:"category"`
	Description             displayString `json:"description"`
	PreprocessedDescription displayString `json:"preprocessed_description"`
	SimilarityScore         score         `json:"similarity_score"`
}

// score tells an absent similarity_score from a null one. Null stands for a
// non-finite value and reads as 0; absence makes the response malformed.
type score struct {
	present bool
	value   float64
}

func (s *score) UnmarshalJSON(data []byte) error {
	s.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		s.value = 0
		return nil
	}
	return json.Unmarshal(data, &s.value)
}

func (w wireRecord) record() catalog.Record {
	rec := catalog.Record{
		Name:                    string(w.Name),
		Price:                   string(w.Price),
		Rating:                  string(w.Rating),
		Category:                string(w.Category),
		Description:             string(w.Description),
		PreprocessedDescription: string(w.PreprocessedDescription),
	}
	rec.SimilarityScore = w.SimilarityScore.value
	return rec
}

// displayString accepts a JSON string, number, bool or null and keeps its text.
type displayString string

func (d *displayString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*d = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = displayString(s)
		return nil
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*d = displayString(formatNumber(n))
		return nil
	}
	*d = displayString(data)
	return nil
}

// formatNumber drops a trailing ".0" so 25.0 displays as 25, matching the file.
func formatNumber(n json.Number) string {
	if f, err := n.Float64(); err == nil && f > -1e15 && f < 1e15 && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// errorBody is what the service returns alongside 4xx/5xx statuses.
type errorBody struct {
	Error string `json:"error"`
}
