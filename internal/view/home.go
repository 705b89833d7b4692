package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HomePage renders the signed-in landing page with the main menu.
func HomePage(display string, nav []Link) templ.Component {
	return layout("Home", templ.ComponentFunc(func(ctx context.Context, iw io.Writer) error {
		w := &writer{w: iw}
		menu(w, nav)
		w.raw(`<main><h1>Welcome, `)
		w.text(display)
		w.raw(`</h1></main>`)
		return w.err
	}))
}

// menu writes the page header with the main navigation and the sign-out link.
func menu(w *writer, nav []Link) {
	w.raw(`<header><nav><ul>`)
	for _, link := range nav {
		w.raw(`<li><a href="`)
		w.text(link.Href)
		w.raw(`">`)
		w.text(link.Name)
		w.raw(`</a></li>`)
	}
	w.raw(`</ul></nav><a href="/logout">Log out</a></header>`)
}
