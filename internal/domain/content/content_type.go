package content

import (
	"fmt"
	"sort"
	"strings"

	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
)

// ContentType names a pool of content sharing one dense-id space.
type ContentType string

const (
	TypeQuiz    ContentType = "quiz"
	TypeQuizSet ContentType = "quiz_set"
	TypeQuote   ContentType = "quote"
	TypeJoke    ContentType = "joke"
	TypePun     ContentType = "pun"
	TypeTrivia  ContentType = "trivia"
)

var DefaultTypes = []ContentType{TypeQuiz, TypeQuizSet, TypeQuote, TypeJoke, TypePun, TypeTrivia}

func (t ContentType) String() string { return string(t) }

func normalize(raw string) ContentType {
	return ContentType(strings.ToLower(strings.TrimSpace(raw)))
}

// TypeRegistry is the closed set of content types the engine accepts.
type TypeRegistry struct {
	types map[ContentType]struct{}
}

func NewTypeRegistry(names []string) *TypeRegistry {
	r := &TypeRegistry{types: make(map[ContentType]struct{}, len(names))}
	for _, n := range names {
		if t := normalize(n); t != "" {
			r.types[t] = struct{}{}
		}
	}
	if len(r.types) == 0 {
		for _, t := range DefaultTypes {
			r.types[t] = struct{}{}
		}
	}
	return r
}

// Validate normalizes raw and returns ErrInvalidContentType when it is unknown.
func (r *TypeRegistry) Validate(raw string) (ContentType, error) {
	t := normalize(raw)
	if t == "" {
		return "", fmt.Errorf("%w: empty", apperr.ErrInvalidContentType)
	}
	if _, ok := r.types[t]; !ok {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidContentType, raw)
	}
	return t, nil
}

// All returns the registered types in sorted order.
func (r *TypeRegistry) All() []ContentType {
	out := make([]ContentType, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
