package browser

import (
	"fmt"
	"strings"
)

// Target is a visible interactive element with the viewport coordinate a
// click script would use to hit it
type Target struct {
	Selector string `json:"selector"`
	Type     string `json:"type"` // button, input, link, select, checkbox, radio
	Text     string `json:"text,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// Command returns the script line that clicks the target
func (t Target) Command() string {
	return fmt.Sprintf("LEFT %d %d", t.X, t.Y)
}

const extractTargets = `() => {
	const targets = [];
	const seen = new Set();

	function isValidCSSClass(cls) {
		if (!cls || cls.length === 0) return false;
		if (/^[0-9]/.test(cls)) return false;
		if (/^-[0-9]/.test(cls)) return false;
		if (/[.:#\[\]()>~+*\/\\]/.test(cls)) return false;
		return true;
	}

	function getSelector(el) {
		if (el.id && isValidCSSClass(el.id)) return '#' + el.id;
		if (el.name) return '[name="' + el.name + '"]';
		if (el.className && typeof el.className === 'string') {
			const classes = el.className.trim().split(/\s+/).filter(isValidCSSClass).slice(0, 2);
			if (classes.length > 0) {
				const selector = el.tagName.toLowerCase() + '.' + classes.join('.');
				try {
					if (document.querySelectorAll(selector).length === 1) return selector;
				} catch (e) {}
			}
		}
		const parent = el.parentElement;
		if (parent) {
			const index = Array.from(parent.children).indexOf(el) + 1;
			return getSelector(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
		}
		return el.tagName.toLowerCase();
	}

	function add(el, type, text) {
		if (!el.offsetParent) return;
		const selector = getSelector(el);
		if (seen.has(selector)) return;
		seen.add(selector);
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return;
		targets.push({
			selector: selector,
			type: type,
			text: (text || '').trim().slice(0, 50),
			x: Math.round(r.left + r.width / 2),
			y: Math.round(r.top + r.height / 2)
		});
	}

	document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]')
		.forEach(el => add(el, 'button', el.textContent || el.value));
	document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="checkbox"]):not([type="radio"]), textarea')
		.forEach(el => add(el, el.type || 'text', el.placeholder));
	document.querySelectorAll('a[href]').forEach(el => {
		const href = el.getAttribute('href');
		if (href.startsWith('javascript:')) return;
		add(el, 'link', el.textContent);
	});
	document.querySelectorAll('select').forEach(el => add(el, 'select', el.name));
	document.querySelectorAll('input[type="checkbox"], input[type="radio"]').forEach(el => add(el, el.type, el.name));

	return targets;
}`

// Targets lists the visible interactive elements of the page
func (b *Browser) Targets() ([]Target, error) {
	res, err := b.page.Eval(extractTargets)
	if err != nil {
		return nil, fmt.Errorf("failed to extract targets: %w", err)
	}

	var targets []Target
	for _, v := range res.Value.Arr() {
		targets = append(targets, Target{
			Selector: v.Get("selector").String(),
			Type:     v.Get("type").String(),
			Text:     v.Get("text").String(),
			X:        v.Get("x").Int(),
			Y:        v.Get("y").Int(),
		})
	}
	return targets, nil
}

// FormatTargets renders targets as an aligned table of script lines
func FormatTargets(targets []Target) string {
	if len(targets) == 0 {
		return "No interactive elements found\n"
	}

	width := 0
	for _, t := range targets {
		if n := len(t.Command()); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, t := range targets {
		fmt.Fprintf(&b, "%-*s  %-8s %s", width, t.Command(), t.Type, t.Selector)
		if t.Text != "" {
			fmt.Fprintf(&b, " %q", t.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
