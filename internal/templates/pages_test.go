// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates_test

import (
	"bytes"
	"context"
	"testing"

	"codeberg.org/oliverandrich/accountd/internal/i18n"
	"codeberg.org/oliverandrich/accountd/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestVerifySuccess(t *testing.T) {
	require.NoError(t, i18n.Init())
	var buf bytes.Buffer

	err := templates.VerifySuccess().Render(context.Background(), &buf)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<!DOCTYPE html>")
	assert.Contains(t, buf.String(), `lang="en"`)
	assert.Contains(t, buf.String(), "Email confirmed")
}

func TestVerifySuccess_German(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.German)
	var buf bytes.Buffer

	err := templates.VerifySuccess().Render(ctx, &buf)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `lang="de"`)
	assert.Contains(t, buf.String(), "E-Mail bestätigt")
}

func TestVerificationEmailHTML(t *testing.T) {
	require.NoError(t, i18n.Init())
	var buf bytes.Buffer

	err := templates.VerificationEmailHTML(templates.VerificationEmail{
		Email:     "<a@x.com>",
		VerifyURL: "http://localhost:8080/verify?email=a%40x.com&token=abc",
		ExpiresAt: "2026-01-01 00:00 UTC",
	}).Render(context.Background(), &buf)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `href="http://localhost:8080/verify?email=a%40x.com&amp;token=abc"`)
	assert.Contains(t, out, "&lt;a@x.com&gt;")
	assert.NotContains(t, out, "<a@x.com>")
	assert.Contains(t, out, "Confirm email address")
}
