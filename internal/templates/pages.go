// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates holds the HTML components rendered by the service.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// VerificationEmail is the data rendered into the HTML verification email.
type VerificationEmail struct {
	Email     string
	VerifyURL string
	ExpiresAt string
}

// layout wraps body in a minimal HTML document.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="`+
			templ.EscapeString(Locale(ctx))+`"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title></head><body>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// VerifySuccess renders the page shown after a browser-based verification.
func VerifySuccess() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := T(ctx, "verify_success_title")
		return layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, `<main><h1>`+templ.EscapeString(title)+`</h1><p>`+
				templ.EscapeString(T(ctx, "verify_success_body"))+`</p></main>`)
			return err
		})).Render(ctx, w)
	})
}

// VerificationEmailHTML renders the HTML alternative of the verification email.
func VerificationEmailHTML(data VerificationEmail) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		vars := map[string]any{"Email": data.Email, "ExpiresAt": data.ExpiresAt}
		return layout(T(ctx, "email_verification_subject"), templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			href := templ.EscapeString(string(templ.URL(data.VerifyURL)))
			_, err := io.WriteString(w, `<p>`+templ.EscapeString(TData(ctx, "email_verification_html_intro", vars))+`</p>`+
				`<p><a href="`+href+`">`+templ.EscapeString(T(ctx, "email_verification_button"))+`</a></p>`+
				`<p>`+templ.EscapeString(TData(ctx, "email_verification_expiry", vars))+`</p>`)
			return err
		})).Render(ctx, w)
	})
}
