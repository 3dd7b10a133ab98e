package apierrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestToBodyMapsTaxonomyErrorTo400(t *testing.T) {
	err := Validation("missing id", map[string]interface{}{"field": "id"})
	body, status := ToBody(err)
	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
	if body.Error.Code != CodeValidation {
		t.Errorf("code = %v, want %v", body.Error.Code, CodeValidation)
	}
	if body.Error.Details["field"] != "id" {
		t.Errorf("details = %v, want field=id", body.Error.Details)
	}
}

func TestToBodyMapsInternalErrorTo500(t *testing.T) {
	_, status := ToBody(Internal("boom", nil))
	if status != 500 {
		t.Errorf("status = %d, want 500", status)
	}
}

func TestToBodyWrapsUnrecognizedErrorAsInternal500(t *testing.T) {
	body, status := ToBody(errors.New("unexpected"))
	if status != 500 || body.Error.Code != CodeInternal {
		t.Errorf("got status=%d code=%v, want 500/%v", status, body.Error.Code, CodeInternal)
	}
}

func TestToBodyUnwrapsWrappedTaxonomyError(t *testing.T) {
	base := LLM("upstream failed", errors.New("timeout"))
	wrapped := fmt.Errorf("handler: %w", base)
	body, status := ToBody(wrapped)
	if status != 400 || body.Error.Code != CodeLLM {
		t.Errorf("got status=%d code=%v, want 400/%v", status, body.Error.Code, CodeLLM)
	}
}

func TestIsTransientClassification(t *testing.T) {
	transient := MarkTransient(errors.New("connection reset"))
	if !IsTransient(transient) {
		t.Error("expected MarkTransient error to be transient")
	}
	if IsTransient(errors.New("auth failed")) {
		t.Error("expected a plain error to not be transient")
	}
}

func TestMarkTransientNilIsNil(t *testing.T) {
	if MarkTransient(nil) != nil {
		t.Error("expected MarkTransient(nil) to be nil")
	}
}
