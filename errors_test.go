package goskemaform_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	form "github.com/reoring/goskemaform"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := form.Issues{
		{Path: "/a", Code: form.CodeInvalidType},
		{Path: "/b", Code: form.CodeRequired},
		{Path: "/c", Code: form.CodeTooShort},
		{Path: "/d", Code: form.CodeTooLong},
	}
	assert.Equal(t, "invalid_type at /a; required at /b; too_short at /c; ... (total 4)", iss.Error())
	assert.Equal(t, "", form.Issues{}.Error())
}

func TestAsIssues_Wrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", form.Issues{{Path: "/x", Code: form.CodeRequired}})
	iss, ok := form.AsIssues(err)
	require.True(t, ok)
	assert.Len(t, iss, 1)

	_, ok = form.AsIssues(nil)
	assert.False(t, ok)
}

func TestErrorMapFromIssues(t *testing.T) {
	em := form.ErrorMapFromIssues(form.Issues{
		{Path: "/items/0/name", Code: form.CodeTooShort, Message: "short"},
		{Path: "/items/0/name", Code: form.CodePattern},
		{Path: "/a~1b", Code: form.CodeRequired, Message: "required"},
		{Path: "/", Code: form.CodeInvalidType, Message: "expected object"},
	})
	assert.Equal(t, form.ErrorMap{
		"items.0.name": {"short", "pattern"},
		"a/b":          {"required"},
		"":             {"expected object"},
	}, em)
	assert.Equal(t, []string{"", "a/b", "items.0.name"}, em.Paths())
	assert.Equal(t, "short", em.First("items.0.name"))
	assert.Equal(t, "", em.First("nope"))

	cp := em.Clone()
	cp["items.0.name"][0] = "changed"
	assert.Equal(t, "short", em.First("items.0.name"))
}

func TestResultFromError(t *testing.T) {
	assert.True(t, form.ResultFromError(nil).Success)

	r := form.ResultFromError(form.Issues{{Path: "/n", Code: form.CodeRequired, Message: "required"}})
	assert.False(t, r.Success)
	assert.NoError(t, r.Err)
	assert.Equal(t, form.ErrorMap{"n": {"required"}}, r.Errors)

	r = form.ResultFromError(context.Canceled)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Nil(t, r.Errors)
}

func TestValidity_String(t *testing.T) {
	assert.Equal(t, "unknown", form.Unknown.String())
	assert.Equal(t, "valid", form.Valid.String())
	assert.Equal(t, "invalid", form.Invalid.String())
	assert.Equal(t, "EventKind(42)", form.EventKind(42).String())
}
