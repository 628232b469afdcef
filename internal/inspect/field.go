// Package inspect detects and classifies form fields on the current page.
// Extraction (rod/DOM) and classification (pure) are split so the
// classification rules are testable without a browser.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// FieldGroup is one raw field-group container as extracted from the DOM,
// before classification. Selector is the opaque locator the owning adapter
// uses to find the control again at fill time.
type FieldGroup struct {
	Label     string   `json:"label"`
	Control   string   `json:"control"`   // input, textarea, select, radio, checkbox, file
	InputType string   `json:"inputType"` // type attribute for input controls
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Value     string   `json:"value"`
	Checked   []string `json:"checked"`
	Required  bool     `json:"required"`
	MaxLength int      `json:"maxLength"`
	Selector  string   `json:"selector"`
}

// extractJS enumerates field-group containers under the given root selector.
// Radio and checkbox inputs sharing a name are folded into one group. Each
// group carries a CSS selector usable to relocate its control.
const extractJS = `
(rootSel) => {
	const root = (rootSel && document.querySelector(rootSel)) || document.body;

	const cssPath = (el) => {
		if (el.id) return '#' + CSS.escape(el.id);
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && parts.length < 6) {
			let part = node.tagName.toLowerCase();
			if (node.id) {
				parts.unshift('#' + CSS.escape(node.id));
				break;
			}
			const parent = node.parentElement;
			if (parent) {
				const same = Array.from(parent.children).filter(c => c.tagName === node.tagName);
				if (same.length > 1) {
					part += ':nth-of-type(' + (same.indexOf(node) + 1) + ')';
				}
			}
			parts.unshift(part);
			node = parent;
		}
		return parts.join(' > ');
	};

	const labelFor = (el) => {
		if (el.id) {
			const lab = root.querySelector('label[for="' + CSS.escape(el.id) + '"]');
			if (lab && lab.innerText.trim()) return lab.innerText.trim();
		}
		const aria = el.getAttribute('aria-label');
		if (aria && aria.trim()) return aria.trim();
		const wrapping = el.closest('label');
		if (wrapping && wrapping.innerText.trim()) return wrapping.innerText.trim();
		const fieldset = el.closest('fieldset');
		if (fieldset) {
			const legend = fieldset.querySelector('legend');
			if (legend && legend.innerText.trim()) return legend.innerText.trim();
		}
		const group = el.closest('[role="group"], [role="radiogroup"], .form-group, .fb-dash-form-element, .ia-Questions-item');
		if (group) {
			const lab = group.querySelector('label, legend, [class*="label"], span[aria-hidden="true"]');
			if (lab && lab.innerText.trim()) return lab.innerText.trim().split('\n')[0];
		}
		if (el.placeholder && el.placeholder.trim()) return el.placeholder.trim();
		return '';
	};

	const groups = [];
	const grouped = {};

	for (const el of root.querySelectorAll('input, textarea, select')) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' && el.type !== 'radio' && el.type !== 'checkbox' && el.type !== 'file') continue;

		const tag = el.tagName.toLowerCase();
		const type = (el.type || '').toLowerCase();

		if (tag === 'input' && (type === 'radio' || type === 'checkbox')) {
			const key = type + '::' + (el.name || cssPath(el.closest('fieldset') || el.parentElement || el));
			if (!grouped[key]) {
				grouped[key] = {
					label: labelFor(el),
					control: type,
					inputType: type,
					name: el.name || '',
					options: [],
					value: '',
					checked: [],
					required: el.required,
					maxLength: 0,
					selector: 'input[type="' + type + '"][name="' + CSS.escape(el.name || '') + '"]'
				};
				groups.push(grouped[key]);
			}
			const g = grouped[key];
			const optLabel = (el.labels && el.labels[0] && el.labels[0].innerText.trim()) ||
				el.value || '';
			if (optLabel) g.options.push(optLabel);
			if (el.checked && optLabel) g.checked.push(optLabel);
			if (!g.label) g.label = labelFor(el);
			continue;
		}

		if (tag === 'input' && (type === 'hidden' || type === 'submit' || type === 'button' || type === 'image' || type === 'reset')) continue;

		const g = {
			label: labelFor(el),
			control: tag === 'input' ? (type === 'file' ? 'file' : 'input') : tag,
			inputType: type,
			name: el.name || '',
			options: [],
			value: '',
			checked: [],
			required: el.required,
			maxLength: (el.maxLength && el.maxLength > 0) ? el.maxLength : 0,
			selector: cssPath(el)
		};

		if (tag === 'select') {
			for (const opt of el.options) {
				const text = opt.innerText.trim();
				if (text) g.options.push(text);
			}
			if (el.selectedIndex > 0) {
				g.value = el.options[el.selectedIndex].innerText.trim();
			}
		} else if (type === 'file') {
			g.value = (el.files && el.files.length > 0) ? el.files[0].name : '';
		} else {
			g.value = el.value || '';
		}
		groups.push(g);
	}
	return groups;
}
`

// ExtractGroups runs the DOM extraction under rootSelector (empty means the
// whole document) and returns the raw field groups in document order.
func ExtractGroups(ctx context.Context, page *rod.Page, rootSelector string) ([]FieldGroup, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           extractJS,
		JSArgs:       []interface{}{rootSelector},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract field groups: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return nil, nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal field groups: %w", err)
	}
	var groups []FieldGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("decode field groups: %w", err)
	}
	return groups, nil
}
