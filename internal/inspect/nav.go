package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
)

// NavKind is the classification of the current page's navigation control.
type NavKind string

const (
	NavSubmit NavKind = "submit"
	NavReview NavKind = "review"
	NavNext   NavKind = "next"
	NavNone   NavKind = "none"
)

// ButtonInfo is one candidate navigation control found on the page.
type ButtonInfo struct {
	Text     string `json:"text"`
	AriaText string `json:"ariaText"`
	Selector string `json:"selector"`
}

// Control is the result of a navigation probe: the classification plus the
// locator of the winning button (empty for NavNone).
type Control struct {
	Kind     NavKind
	Selector string
}

var submitTexts = []string{"submit application", "submit", "send application"}
var reviewTexts = []string{"review your application", "review application", "review"}
var nextTexts = []string{"next", "continue to next step", "continue", "save and continue"}

func matchAny(b ButtonInfo, needles []string) bool {
	text := strings.ToLower(strings.TrimSpace(b.Text))
	aria := strings.ToLower(strings.TrimSpace(b.AriaText))
	for _, n := range needles {
		if text == n || aria == n || strings.Contains(text, n) || strings.Contains(aria, n) {
			return true
		}
	}
	return false
}

// ClassifyNav picks exactly one navigation classification from the candidate
// buttons. Submit wins over Review wins over Next; no match means NavNone.
func ClassifyNav(buttons []ButtonInfo) Control {
	for _, tier := range []struct {
		kind    NavKind
		needles []string
	}{
		{NavSubmit, submitTexts},
		{NavReview, reviewTexts},
		{NavNext, nextTexts},
	} {
		for _, b := range buttons {
			if matchAny(b, tier.needles) {
				return Control{Kind: tier.kind, Selector: b.Selector}
			}
		}
	}
	return Control{Kind: NavNone}
}

// collectButtonsJS gathers visible button-like controls under the root.
const collectButtonsJS = `
(rootSel) => {
	const root = (rootSel && document.querySelector(rootSel)) || document.body;
	const out = [];
	const els = root.querySelectorAll('button, input[type="submit"], [role="button"]');
	let i = 0;
	for (const el of els) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || rect.width === 0) continue;
		let sel;
		if (el.id) {
			sel = '#' + CSS.escape(el.id);
		} else {
			el.setAttribute('data-applypilot-btn', String(i));
			sel = '[data-applypilot-btn="' + i + '"]';
		}
		i++;
		out.push({
			text: (el.innerText || el.value || '').trim(),
			ariaText: (el.getAttribute('aria-label') || '').trim(),
			selector: sel
		});
	}
	return out;
}
`

// ProbeNavigation collects candidate buttons on the page and classifies the
// navigation control under rootSelector.
func ProbeNavigation(ctx context.Context, page *rod.Page, rootSelector string) (Control, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           collectButtonsJS,
		JSArgs:       []interface{}{rootSelector},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return Control{Kind: NavNone}, fmt.Errorf("collect buttons: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return Control{Kind: NavNone}, nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return Control{Kind: NavNone}, err
	}
	var buttons []ButtonInfo
	if err := json.Unmarshal(raw, &buttons); err != nil {
		return Control{Kind: NavNone}, fmt.Errorf("decode buttons: %w", err)
	}
	return ClassifyNav(buttons), nil
}
