// Package search filters stored documents with a small query language:
//
//	thesis                     title or content contains "thesis"
//	title:"lab report"         title contains the phrase
//	content:#table             content contains the text
//	modified:<7d               updated within the last 7 days
//	created:>1y                created more than a year ago
//	title:draft OR title:wip   conditions joined by AND (default) or OR
//	NOT content:TODO           negated condition
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldType represents the document field a condition looks at
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTitle    FieldType = "title"
	FieldContent  FieldType = "content"
	FieldModified FieldType = "modified"
	FieldCreated  FieldType = "created"
)

// Operator represents a search operator
type Operator string

const (
	OperatorContains Operator = "contains"
	OperatorNewer    Operator = "newer"
	OperatorOlder    Operator = "older"
	OperatorAND      Operator = "AND"
	OperatorOR       Operator = "OR"
)

// Condition represents a single search condition. Value is a string for
// text fields and a time.Duration (an age) for date fields.
type Condition struct {
	Field    FieldType
	Operator Operator
	Value    interface{}
	Negate   bool
}

// Query represents a parsed search query
type Query struct {
	Conditions []Condition
	Logic      []Operator // between consecutive conditions
	Raw        string
}

// Parser handles parsing of search queries
type Parser struct {
	fieldPattern  *regexp.Regexp
	quotedPattern *regexp.Regexp
	agePattern    *regexp.Regexp
}

// NewParser creates a new search query parser
func NewParser() *Parser {
	return &Parser{
		fieldPattern:  regexp.MustCompile(`^(\w+):(.+)$`),
		quotedPattern: regexp.MustCompile(`^"([^"]*)"$`),
		agePattern:    regexp.MustCompile(`^([<>])(\d+)([hdwmy])$`),
	}
}

// Parse parses a search query string into a Query
func (p *Parser) Parse(input string) (*Query, error) {
	query := &Query{Raw: input}
	tokens := p.tokenize(input)

	negate := false
	for _, token := range tokens {
		switch strings.ToUpper(token) {
		case "AND", "OR":
			if len(query.Conditions) == 0 || len(query.Logic) == len(query.Conditions) {
				return nil, fmt.Errorf("unexpected operator %s", token)
			}
			query.Logic = append(query.Logic, Operator(strings.ToUpper(token)))
			continue
		case "NOT":
			negate = true
			continue
		}

		cond, err := p.parseCondition(token)
		if err != nil {
			return nil, err
		}
		cond.Negate = negate
		negate = false

		if len(query.Conditions) > len(query.Logic) {
			query.Logic = append(query.Logic, OperatorAND)
		}
		query.Conditions = append(query.Conditions, cond)
	}

	if negate {
		return nil, fmt.Errorf("NOT operator requires a condition")
	}
	if len(query.Logic) >= len(query.Conditions) && len(query.Logic) > 0 {
		return nil, fmt.Errorf("operator %s requires a condition", query.Logic[len(query.Logic)-1])
	}
	return query, nil
}

// tokenize splits on spaces outside of double quotes.
func (p *Parser) tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ' ' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func (p *Parser) parseCondition(token string) (Condition, error) {
	matches := p.fieldPattern.FindStringSubmatch(token)
	if len(matches) != 3 {
		return Condition{Field: FieldText, Operator: OperatorContains, Value: p.unquote(token)}, nil
	}

	value := matches[2]
	switch field := FieldType(strings.ToLower(matches[1])); field {
	case FieldTitle, FieldContent:
		return Condition{Field: field, Operator: OperatorContains, Value: p.unquote(value)}, nil
	case FieldModified, FieldCreated:
		age, op, err := p.parseAge(value)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Operator: op, Value: age}, nil
	default:
		return Condition{}, fmt.Errorf("unknown field: %s", matches[1])
	}
}

// parseAge parses values like "<7d" (newer than) or ">2w" (older than).
func (p *Parser) parseAge(value string) (time.Duration, Operator, error) {
	matches := p.agePattern.FindStringSubmatch(value)
	if len(matches) != 4 {
		return 0, "", fmt.Errorf("invalid date value: %s (expected format: <7d, >2w, etc.)", value)
	}

	n, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, "", fmt.Errorf("invalid date value: %s", value)
	}

	var unit time.Duration
	switch matches[3] {
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	case "m":
		unit = 30 * 24 * time.Hour
	case "y":
		unit = 365 * 24 * time.Hour
	}

	op := OperatorNewer
	if matches[1] == ">" {
		op = OperatorOlder
	}
	return time.Duration(n) * unit, op, nil
}

func (p *Parser) unquote(s string) string {
	if matches := p.quotedPattern.FindStringSubmatch(s); len(matches) == 2 {
		return matches[1]
	}
	return s
}
