package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
)

// Matches reports whether doc satisfies the query. Conditions are
// combined left to right. An empty query matches everything.
func (q *Query) Matches(doc models.Document, now time.Time) bool {
	if len(q.Conditions) == 0 {
		return true
	}
	result := q.Conditions[0].matches(doc, now)
	for i := 1; i < len(q.Conditions); i++ {
		next := q.Conditions[i].matches(doc, now)
		switch q.Logic[i-1] {
		case OperatorOR:
			result = result || next
		default:
			result = result && next
		}
	}
	return result
}

func (c Condition) matches(doc models.Document, now time.Time) bool {
	var ok bool
	switch c.Field {
	case FieldText:
		term := c.Value.(string)
		ok = containsFold(doc.Title, term) || containsFold(doc.Content, term)
	case FieldTitle:
		ok = containsFold(doc.Title, c.Value.(string))
	case FieldContent:
		ok = containsFold(doc.Content, c.Value.(string))
	case FieldModified:
		ok = compareAge(now.Sub(doc.UpdatedAt), c.Operator, c.Value.(time.Duration))
	case FieldCreated:
		ok = compareAge(now.Sub(doc.CreatedAt), c.Operator, c.Value.(time.Duration))
	}
	return ok != c.Negate
}

func compareAge(age time.Duration, op Operator, limit time.Duration) bool {
	if op == OperatorOlder {
		return age > limit
	}
	return age <= limit
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

// Filter parses query and returns the documents that match it, in order.
func Filter(docs []models.Document, query string, now time.Time) ([]models.Document, error) {
	q, err := NewParser().Parse(query)
	if err != nil {
		return nil, err
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d, now) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Terms returns the text the query searches content for, for excerpts.
func (q *Query) Terms() []string {
	var terms []string
	for _, c := range q.Conditions {
		if c.Negate {
			continue
		}
		if c.Field == FieldText || c.Field == FieldContent {
			terms = append(terms, c.Value.(string))
		}
	}
	return terms
}

// Excerpts returns up to maxExcerpts snippets of content around term,
// with contextChars bytes on each side.
func Excerpts(content, term string, maxExcerpts, contextChars int) []string {
	var excerpts []string
	if term == "" {
		return excerpts
	}
	lowerContent := strings.ToLower(content)
	lowerTerm := strings.ToLower(term)

	index := 0
	for i := 0; i < maxExcerpts; i++ {
		pos := strings.Index(lowerContent[index:], lowerTerm)
		if pos == -1 {
			break
		}
		pos += index
		if pos >= len(content) {
			break
		}

		start := max(pos-contextChars, 0)
		end := min(pos+len(lowerTerm)+contextChars, len(content))
		for start > 0 && !utf8.RuneStart(content[start]) {
			start--
		}
		for end < len(content) && !utf8.RuneStart(content[end]) {
			end++
		}

		excerpt := strings.ReplaceAll(content[start:end], "\n", " ")
		if start > 0 {
			excerpt = "..." + excerpt
		}
		if end < len(content) {
			excerpt += "..."
		}
		excerpts = append(excerpts, excerpt)
		index = pos + len(lowerTerm)
	}
	return excerpts
}
