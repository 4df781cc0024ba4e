// Package landing renders the coming-soon page and its signup form fragment.
package landing

import (
	"fmt"
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/tphakala/comingsoon/internal/captcha"
	"github.com/tphakala/comingsoon/internal/toast"
)

// Button labels.
const (
	LabelIdle    = "Notify me!"
	LabelLoading = "Loading..."
)

// JavaScript callbacks the CAPTCHA script invokes; defined in comingsoon.js.
const (
	captchaCallback        = "comingsoonCaptcha"
	captchaExpiredCallback = "comingsoonCaptchaExpired"
)

// PageData is everything the page and the form fragment render from.
type PageData struct {
	Title      string
	EventName  string
	Headline   string
	Highlight  string
	Tagline    string
	Background string
	StarCount  int
	StarSeed   int64
	OrbColors  []string

	BasePath  string
	CSRFToken string

	Provider     captcha.Provider
	SiteKey      string
	CaptchaTheme string

	// Visitor state
	Email      string
	IsLoading  bool
	Generation uint64
	Toasts     []*toast.Toast
}

func (d *PageData) url(path string) string {
	return strings.TrimRight(d.BasePath, "/") + path
}

// Page renders the complete document.
func Page(d PageData) g.Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(d.Title)),
				Link(Rel("stylesheet"), Href(d.url("/assets/comingsoon.css"))),
				g.If(d.Provider.ScriptURL != "", Script(Src(d.Provider.ScriptURL), Async(), Defer())),
				Script(Src(d.url("/assets/comingsoon.js")), Defer()),
			),
			Body(
				Class("cs-body"),
				Div(
					Class("cs-hero"),
					g.If(d.Background != "",
						Img(Src(d.Background), Alt("background planet"), Class("cs-backdrop"), Aria("hidden", "true")),
					),
					starField(GenerateStars(d.StarCount, d.StarSeed)),
					Main(
						Class("cs-content"),
						Div(
							Class("cs-copy"),
							g.If(d.EventName != "", P(Class("cs-event"), g.Text(d.EventName))),
							H1(
								Class("cs-headline"),
								g.If(d.Headline != "", g.Text(d.Headline+" ")),
								Span(Class("cs-gradient"), g.Text(d.Highlight)),
							),
							g.If(d.Tagline != "", P(Class("cs-tagline"), g.Text(d.Tagline))),
							orbs(d.OrbColors),
							FormFragment(d),
						),
					),
				),
			),
		),
	)
}

// FragmentHeader marks a form post made by the page script, which expects
// the form fragment back instead of a redirect.
const FragmentHeader = "X-Signup-Fragment"

// FormFragment renders the signup form and pending toasts. The page script
// swaps it in place of the element with id "signup" after a fetch post.
func FormFragment(d PageData) g.Node {
	label := LabelIdle
	if d.IsLoading {
		label = LabelLoading
	}

	return Div(
		ID("signup"),
		Form(
			ID("signup-form"),
			Class("cs-form"),
			Method("post"),
			Action(d.url("/signup")),
			Data("captcha-url", d.url("/captcha")),
			g.If(d.CSRFToken != "", Input(Type("hidden"), Name("_csrf"), Value(d.CSRFToken))),
			Div(
				Class("cs-row"),
				Div(
					Class("cs-input-ring"),
					Input(
						Type("email"),
						Name("email"),
						Placeholder("Enter Email"),
						Value(d.Email),
						AutoComplete("email"),
						Aria("label", "Email address"),
						Class("cs-input"),
					),
				),
				Div(
					Class("cs-button-ring"),
					Button(
						Type("submit"),
						Class("cs-button"),
						g.If(d.IsLoading, Disabled()),
						g.If(d.IsLoading, Aria("busy", "true")),
						g.Text(label),
					),
				),
			),
			captchaWidget(d),
		),
		toastRegion(d.Toasts),
	)
}

// captchaWidget renders the provider container. Its id changes with the
// widget generation so a reset renders a fresh challenge.
func captchaWidget(d PageData) g.Node {
	if d.Provider.WidgetClass == "" {
		return nil
	}
	theme := d.CaptchaTheme
	if theme == "" {
		theme = "dark"
	}
	return Div(
		Class("cs-captcha"),
		ID(fmt.Sprintf("captcha-%d", d.Generation)),
		Data("generation", strconv.FormatUint(d.Generation, 10)),
		Div(
			Class(d.Provider.WidgetClass),
			Data("sitekey", d.SiteKey),
			g.Attr(d.Provider.CallbackAttr, captchaCallback),
			g.Attr(d.Provider.ExpiredAttr, captchaExpiredCallback),
			g.Attr(d.Provider.ThemeAttr, theme),
		),
	)
}

func toastRegion(toasts []*toast.Toast) g.Node {
	return Div(
		ID("toasts"),
		Class("cs-toasts"),
		Role("status"),
		Aria("live", "polite"),
		g.Group(g.Map(toasts, func(t *toast.Toast) g.Node {
			return Div(
				Class("cs-toast cs-toast-"+string(t.Type)),
				Data("toast-id", t.ID),
				Data("duration", strconv.FormatInt(t.Duration.Milliseconds(), 10)),
				g.Text(t.Message),
			)
		})),
	)
}

func starField(stars []Star) g.Node {
	return Div(
		Class("cs-stars"),
		Aria("hidden", "true"),
		g.Group(g.Map(stars, func(s Star) g.Node {
			return Span(
				Class("cs-star"),
				Style(fmt.Sprintf("top:%.1f%%;left:%.1f%%;width:%.1fpx;height:%.1fpx;animation-delay:%.1fs;animation-duration:%.1fs",
					s.Top, s.Left, s.Size, s.Size, s.Delay, s.Duration)),
			)
		})),
	)
}

// orbs renders one floating orb per colour; CSS positions them by index.
func orbs(colors []string) g.Node {
	nodes := make([]g.Node, 0, len(colors))
	for i, color := range colors {
		nodes = append(nodes, Div(
			Class(fmt.Sprintf("cs-orb cs-orb-%d", i+1)),
			Style("--orb-color:"+color),
			Aria("hidden", "true"),
		))
	}
	return g.Group(nodes)
}
