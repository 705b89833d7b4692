package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LoginForm is what the login page shows: the submitted values and any
// per-field errors.
type LoginForm struct {
	Email      string
	Remember   bool
	RedirectTo string
	Errors     map[string]string
}

// LoginPage renders the sign-in form.
func LoginPage(form LoginForm) templ.Component {
	return layout("Sign in", templ.ComponentFunc(func(ctx context.Context, iw io.Writer) error {
		w := &writer{w: iw}
		w.raw(`<main><h1>Sign in</h1><form method="post" action="/login" novalidate>`)

		w.raw(`<label for="email">Email address</label>`)
		w.raw(`<input id="email" name="email" type="email" autocomplete="email" required value="`)
		w.text(form.Email)
		w.raw(`">`)
		fieldError(w, form.Errors, "email")

		w.raw(`<label for="password">Password</label>`)
		w.raw(`<input id="password" name="password" type="password" autocomplete="current-password" required>`)
		fieldError(w, form.Errors, "password")

		w.raw(`<input type="hidden" name="redirectTo" value="`)
		w.text(form.RedirectTo)
		w.raw(`">`)

		w.raw(`<label><input name="remember" type="checkbox"`)
		if form.Remember {
			w.raw(` checked`)
		}
		w.raw(`> Remember me</label>`)

		w.raw(`<button type="submit">Log in</button></form></main>`)
		return w.err
	}))
}

func fieldError(w *writer, errs map[string]string, field string) {
	msg, ok := errs[field]
	if !ok {
		return
	}
	w.raw(`<p class="error" id="` + field + `-error" role="alert">`)
	w.text(msg)
	w.raw(`</p>`)
}
