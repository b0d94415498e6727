// Package submission turns an uploaded results file into leaderboard scores.
package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/factboard/internal/domain/types"
	"github.com/okian/factboard/internal/domain/validate"
)

// NumericPolicy controls how score fields are read.
type NumericPolicy string

const (
	// PolicyCoerce reads scores like a lenient float parser: numbers as-is,
	// strings by their leading numeric prefix, anything else as 0.
	PolicyCoerce NumericPolicy = "coerce"
	// PolicyStrict requires each score to be a finite JSON number.
	PolicyStrict NumericPolicy = "strict"
)

// ParsePolicy maps a config value to a NumericPolicy; empty means coerce.
func ParsePolicy(s string) (NumericPolicy, error) {
	switch NumericPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyCoerce:
		return PolicyCoerce, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Submission is the content of one results file.
type Submission struct {
	Model        string
	FullContext  float64
	GoldEvidence float64
}

// Delta returns goldEvidence minus fullContext.
func (s Submission) Delta() float64 {
	return types.ComputeDelta(s.FullContext, s.GoldEvidence)
}

// numericPrefix matches what a lenient float parser accepts at the start of a string.
var numericPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// Parse decodes raw under policy. Fields other than model, fullContext and
// goldEvidence are ignored.
func Parse(raw []byte, policy NumericPolicy) (Submission, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Submission{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	var (
		sub  Submission
		verr validate.ValidationError
	)

	sub.Model = readModel(&verr, fields[validate.FieldModel])

	switch policy {
	case PolicyStrict:
		sub.FullContext = strictScore(&verr, validate.FieldFullContext, fields[validate.FieldFullContext])
		sub.GoldEvidence = strictScore(&verr, validate.FieldGoldEvidence, fields[validate.FieldGoldEvidence])
	default:
		sub.FullContext = Coerce(fields[validate.FieldFullContext])
		sub.GoldEvidence = Coerce(fields[validate.FieldGoldEvidence])
	}

	if err := verr.Err(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func readModel(verr *validate.ValidationError, raw json.RawMessage) string {
	if isNull(raw) {
		verr.Missing(validate.FieldModel)
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		verr.Invalid(validate.FieldModel, "must be a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		verr.Missing(validate.FieldModel)
	}
	return s
}

func strictScore(verr *validate.ValidationError, field string, raw json.RawMessage) float64 {
	if isNull(raw) {
		verr.Missing(field)
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || !validate.Finite(v) {
		verr.Invalid(field, "must be a finite number")
		return 0
	}
	return v
}

// Coerce reads a JSON value the lenient way. The result is always finite.
func Coerce(raw json.RawMessage) float64 {
	if isNull(raw) {
		return 0
	}
	var v float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		v = parseLeadingFloat(s)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0
		}
		v = f
	}
	if !validate.Finite(v) {
		return 0
	}
	return v
}

func parseLeadingFloat(s string) float64 {
	m := numericPrefix.FindString(strings.TrimLeftFunc(s, unicode.IsSpace))
	if m == "" || strings.HasSuffix(m, "Infinity") {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
