package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeAlreadyExists, http.StatusConflict},
		{ErrorCodeDuplicateName, http.StatusConflict},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeNotSignedIn, http.StatusUnauthorized},
		{ErrorCodeTransient, http.StatusServiceUnavailable},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError}, // default branch
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestCodeNames(t *testing.T) {
	t.Parallel()
	if ErrorCodeDuplicateName.String() != "duplicate_name" {
		t.Fatalf("String() = %q", ErrorCodeDuplicateName.String())
	}
	if ErrorCode(4242).String() != "code(4242)" {
		t.Fatalf("out of range String() = %q", ErrorCode(4242).String())
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	t.Parallel()
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	src := stderrs.New("root")
	e1 := Wrapf(src, ErrorCodeTransient, "query %s", "events")
	if want := "query events: root"; e1.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e1.Error(), want)
	}
	if stderrs.Unwrap(e1) != src {
		t.Fatalf("Wrap did not keep orig")
	}
	if Message(e1) != "query events" {
		t.Fatalf("Message = %q", Message(e1))
	}
	if Message(src) != "root" || Message(nil) != "" {
		t.Fatalf("Message fallback mismatch")
	}

	e2 := WithField(New(ErrorCodeDuplicateName, "dup"), "name")
	e3 := WithOp(e2, "catalog.insert")
	if fe, ok := As(e2); !ok || fe.Field() != "name" || fe.Op() != "" {
		t.Fatalf("WithField failed")
	}
	if oe, ok := As(e3); !ok || oe.Op() != "catalog.insert" || oe.Field() != "name" {
		t.Fatalf("WithOp failed")
	}
	if WithField(src, "x") != src {
		t.Fatalf("WithField should pass foreign errors through")
	}

	w := WireFrom(e3)
	if w.Code != ErrorCodeDuplicateName || w.Kind != "duplicate_name" || w.Field != "name" {
		t.Fatalf("WireFrom(ours) mismatch: %+v", w)
	}
	if wf := WireFrom(src); wf.Code != ErrorCodeUnknown || wf.Message != "root" {
		t.Fatalf("WireFrom(foreign) mismatch: %+v", wf)
	}
	if WireFrom(nil) != (Wire{}) {
		t.Fatalf("WireFrom(nil) should be zero")
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if Root(deep) != src {
		t.Fatalf("Root() failed")
	}
}

func TestSugar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NotFoundf("x"), ErrorCodeNotFound},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{AlreadyExistsf("x"), ErrorCodeAlreadyExists},
		{DuplicateNamef("x"), ErrorCodeDuplicateName},
		{Transientf("x"), ErrorCodeTransient},
		{JSONErrf("x"), ErrorCodeJSON},
		{PanicErrf("x"), ErrorCodePanic},
		{Unauthorizedf("x"), ErrorCodeUnauthorized},
		{ErrNotSignedIn, ErrorCodeNotSignedIn},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.code) {
			t.Fatalf("%v: code = %v, want %v", c.err, CodeOf(c.err), c.code)
		}
	}
	if IsCode(nil, ErrorCodeUnknown) {
		t.Fatalf("IsCode(nil) must be false")
	}
}

func TestFromStore(t *testing.T) {
	t.Parallel()
	if FromStore(nil, "x") != nil {
		t.Fatalf("nil should pass through")
	}
	ours := DuplicateNamef("dup")
	if FromStore(ours, "wrap") != ours {
		t.Fatalf("our errors keep their code untouched")
	}
	if got := FromStore(stderrs.New("dial tcp: refused"), "get"); !IsCode(got, ErrorCodeTransient) {
		t.Fatalf("foreign error code = %v", CodeOf(got))
	}
	if !Retryable(FromStore(stderrs.New("eof"), "get")) {
		t.Fatalf("transient errors are retryable")
	}
	if Retryable(NotFoundf("x")) || Retryable(nil) {
		t.Fatalf("not found is not retryable")
	}
}

func TestHTTPHelper(t *testing.T) {
	t.Parallel()
	if st, w := HTTP(nil); st != http.StatusOK || w != (Wire{}) {
		t.Fatalf("HTTP(nil) mismatch: %d %+v", st, w)
	}
	st, w := HTTP(ErrNotSignedIn)
	if st != http.StatusUnauthorized || w.Kind != "not_signed_in" {
		t.Fatalf("HTTP(err) mismatch: %d %+v", st, w)
	}
}
