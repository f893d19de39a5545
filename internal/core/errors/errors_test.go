package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("emit: %w", New(CodeNoCommonAncestor, "no common ancestor"))
		if !IsCode(err, CodeNoCommonAncestor) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if CodeOf(err) != CodeNoCommonAncestor {
			t.Errorf("expected CodeOf NO_COMMON_ANCESTOR, got %s", CodeOf(err))
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeConflict, "duplicate"), CtxPath, "a/B.java")
		expected := "[CONFLICT] duplicate map[path:a/B.java]"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		plain := AddContext(errors.New("boom"), CtxOperation, "write")
		if CodeOf(plain) != CodeInternal {
			t.Errorf("expected plain errors to become INTERNAL_ERROR, got %s", CodeOf(plain))
		}
	})
}
