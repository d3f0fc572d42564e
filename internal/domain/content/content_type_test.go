package content

import (
	"errors"
	"testing"

	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
)

func TestTypeRegistryValidate(t *testing.T) {
	r := NewTypeRegistry([]string{"quiz", " Joke "})

	got, err := r.Validate("QUIZ ")
	if err != nil || got != TypeQuiz {
		t.Fatalf("Validate(quiz): got=%q err=%v", got, err)
	}
	if got, err := r.Validate("joke"); err != nil || got != TypeJoke {
		t.Fatalf("Validate(joke): got=%q err=%v", got, err)
	}
	if _, err := r.Validate("pun"); !errors.Is(err, apperr.ErrInvalidContentType) {
		t.Fatalf("Validate(pun): expected ErrInvalidContentType, got %v", err)
	}
	if _, err := r.Validate(""); !errors.Is(err, apperr.ErrInvalidContentType) {
		t.Fatalf("Validate(empty): expected ErrInvalidContentType, got %v", err)
	}
	all := r.All()
	if len(all) != 2 || all[0] != TypeJoke || all[1] != TypeQuiz {
		t.Fatalf("All: %v", all)
	}
}

func TestTypeRegistryDefaults(t *testing.T) {
	r := NewTypeRegistry(nil)
	if len(r.All()) != len(DefaultTypes) {
		t.Fatalf("expected defaults, got %v", r.All())
	}
	if _, err := r.Validate("trivia"); err != nil {
		t.Fatalf("Validate(trivia): %v", err)
	}
}
