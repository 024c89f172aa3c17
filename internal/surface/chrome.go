// Package surface - chrome.go drives a live Chrome instance over the DevTools
// protocol. The browser is expected to be already running with remote
// debugging enabled; the surface attaches to it rather than launching one.
package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/form-autofill/internal/types"
)

// containerSelectors are tried in order when locating question containers.
// The first selector that matches anything wins for the whole page.
var containerSelectors = []string{
	"[role='listitem']",
	"[data-params]",
	".freebirdFormviewerViewNumberedItemContainer",
}

// labelSelectors are tried in order inside a container before falling back to
// the container's first line of text.
var labelSelectors = []string{
	"[role='heading']",
	".freebirdFormviewerComponentsQuestionBaseTitle",
	".freebirdFormviewerComponentsQuestionBaseHeader",
}

// fieldSelectors maps each field type to the CSS selector that finds its
// inputs inside a question container.
var fieldSelectors = map[types.FieldType]string{
	types.FieldText:     "input[type='text'], input[type='email'], input[type='tel'], input[type='number']",
	types.FieldTextarea: "textarea",
	types.FieldRadio:    "[role='radio'], input[type='radio']",
	types.FieldCheckbox: "[role='checkbox'], input[type='checkbox']",
	types.FieldSelect:   "select",
}

// DefaultOpTimeout bounds every single DevTools round trip.
const DefaultOpTimeout = 10 * time.Second

// ChromeSurface implements Surface against an attached Chrome instance.
type ChromeSurface struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
	opTimeout  time.Duration

	// containerSelector is the selector that matched on the current page,
	// refreshed by ListQuestionContainers.
	containerSelector string
}

// ConnectChrome attaches to a Chrome instance listening on the given remote
// debugging port (the launcher starts Chrome with --remote-debugging-port).
func ConnectChrome(ctx context.Context, debugPort int) (*ChromeSurface, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx,
		fmt.Sprintf("http://127.0.0.1:%d", debugPort))
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &ChromeSurface{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{browserCancel, allocCancel},
		opTimeout:  DefaultOpTimeout,
	}

	// Verify the attach before handing the surface out.
	if _, err := s.CurrentPageURL(ctx); err != nil {
		s.Close()
		return nil, &ConnectivityError{
			Message: fmt.Sprintf("cannot attach to Chrome on port %d", debugPort),
			Cause:   err,
		}
	}
	return s, nil
}

// Close releases the browser attachment. The browser itself keeps running.
func (s *ChromeSurface) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func (s *ChromeSurface) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, s.opTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// evaluate runs a JS expression and decodes its JSON result into out.
func (s *ChromeSurface) evaluate(expr string, out interface{}) error {
	return s.run(chromedp.Evaluate(expr, out))
}

// jsString renders a Go string as a JS string literal.
func jsString(v string) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// containerExpr returns a JS expression locating container ci on the page.
func (s *ChromeSurface) containerExpr(ci int) string {
	return fmt.Sprintf("document.querySelectorAll(%s)[%d]", jsString(s.containerSelector), ci)
}

// fieldExpr returns a JS expression locating a field inside its container.
func (s *ChromeSurface) fieldExpr(r fieldRef) string {
	sel, ok := fieldSelectors[r.Kind]
	if !ok {
		sel = ""
	}
	return fmt.Sprintf("(%s ? %s.querySelectorAll(%s)[%d] : undefined)",
		s.containerExpr(r.Container), s.containerExpr(r.Container), jsString(sel), r.Index)
}

// ListQuestionContainers finds question containers on the current page,
// trying each known selector in order.
func (s *ChromeSurface) ListQuestionContainers(_ context.Context) ([]ContainerHandle, error) {
	selectorsJSON, _ := json.Marshal(containerSelectors)
	expr := fmt.Sprintf(`(() => {
		for (const sel of %s) {
			const els = document.querySelectorAll(sel);
			if (els.length > 0) return {selector: sel, count: els.length};
		}
		return {selector: "", count: 0};
	})()`, selectorsJSON)

	var result struct {
		Selector string `json:"selector"`
		Count    int    `json:"count"`
	}
	if err := s.evaluate(expr, &result); err != nil {
		return nil, &ConnectivityError{Message: "cannot query page containers", Cause: err}
	}

	s.containerSelector = result.Selector
	handles := make([]ContainerHandle, 0, result.Count)
	for i := 0; i < result.Count; i++ {
		handles = append(handles, encodeContainerHandle(i))
	}
	return handles, nil
}

// ExtractLabel reads the question label, trying the heading selectors first
// and falling back to the container's first line of text.
func (s *ChromeSurface) ExtractLabel(_ context.Context, c ContainerHandle) (string, error) {
	ci, err := decodeContainerHandle(c)
	if err != nil {
		return "", err
	}
	selectorsJSON, _ := json.Marshal(labelSelectors)
	expr := fmt.Sprintf(`(() => {
		const c = %s;
		if (!c) return "";
		for (const sel of %s) {
			const el = c.querySelector(sel);
			if (el) {
				const text = (el.textContent || "").trim();
				if (text) return text;
			}
		}
		const text = (c.textContent || "").trim();
		return text ? text.split("\n")[0] : "";
	})()`, s.containerExpr(ci), selectorsJSON)

	var label string
	if err := s.evaluate(expr, &label); err != nil {
		return "", fmt.Errorf("label extraction failed for %s: %w", c, err)
	}
	return label, nil
}

// ExtractFields counts the inputs of each type inside a container and returns
// handles for them.
func (s *ChromeSurface) ExtractFields(_ context.Context, c ContainerHandle) (types.FieldSet, error) {
	ci, err := decodeContainerHandle(c)
	if err != nil {
		return types.FieldSet{}, err
	}
	expr := fmt.Sprintf(`(() => {
		const c = %s;
		if (!c) return null;
		return {
			text: c.querySelectorAll(%s).length,
			textarea: c.querySelectorAll(%s).length,
			radio: c.querySelectorAll(%s).length,
			checkbox: c.querySelectorAll(%s).length,
			select: c.querySelectorAll(%s).length
		};
	})()`, s.containerExpr(ci),
		jsString(fieldSelectors[types.FieldText]),
		jsString(fieldSelectors[types.FieldTextarea]),
		jsString(fieldSelectors[types.FieldRadio]),
		jsString(fieldSelectors[types.FieldCheckbox]),
		jsString(fieldSelectors[types.FieldSelect]))

	var counts struct {
		Text     int `json:"text"`
		Textarea int `json:"textarea"`
		Radio    int `json:"radio"`
		Checkbox int `json:"checkbox"`
		Select   int `json:"select"`
	}
	if err := s.evaluate(expr, &counts); err != nil {
		return types.FieldSet{}, fmt.Errorf("field extraction failed for %s: %w", c, err)
	}

	return types.FieldSet{
		Text:     makeHandles(ci, types.FieldText, counts.Text),
		Textarea: makeHandles(ci, types.FieldTextarea, counts.Textarea),
		Radio:    makeHandles(ci, types.FieldRadio, counts.Radio),
		Checkbox: makeHandles(ci, types.FieldCheckbox, counts.Checkbox),
		Select:   makeHandles(ci, types.FieldSelect, counts.Select),
	}, nil
}

func makeHandles(ci int, kind types.FieldType, count int) []types.FieldHandle {
	if count == 0 {
		return nil
	}
	handles := make([]types.FieldHandle, 0, count)
	for i := 0; i < count; i++ {
		handles = append(handles, encodeFieldRef(fieldRef{Container: ci, Kind: kind, Index: i}))
	}
	return handles
}

// ReadFieldValue reads the current value of a text, textarea, or select field.
func (s *ChromeSurface) ReadFieldValue(_ context.Context, h types.FieldHandle) (string, error) {
	r, err := decodeFieldRef(h)
	if err != nil {
		return "", err
	}
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return "";
		if (el.tagName === "SELECT") {
			return el.selectedIndex >= 0 ? el.options[el.selectedIndex].text.trim() : "";
		}
		return el.value || "";
	})()`, s.fieldExpr(r))

	var value string
	if err := s.evaluate(expr, &value); err != nil {
		return "", fmt.Errorf("read failed for field %s: %w", h, err)
	}
	return value, nil
}

// SetFieldValue clears the field and writes value, dispatching the input and
// change events the page's own scripts listen for.
func (s *ChromeSurface) SetFieldValue(_ context.Context, h types.FieldHandle, value string) error {
	r, err := decodeFieldRef(h)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.focus();
		el.value = %s;
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	})()`, s.fieldExpr(r), jsString(value))

	var ok bool
	if err := s.evaluate(expr, &ok); err != nil {
		return fmt.Errorf("write failed for field %s: %w", h, err)
	}
	if !ok {
		return fmt.Errorf("field %s not found on page", h)
	}
	return nil
}

// ClickOption clicks a radio or checkbox whose visible label contains label.
// An already-selected checkbox is left alone.
func (s *ChromeSurface) ClickOption(_ context.Context, h types.FieldHandle, label string) (bool, error) {
	r, err := decodeFieldRef(h)
	if err != nil {
		return false, err
	}
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		const text = (el.getAttribute("aria-label") || el.textContent || "").toLowerCase();
		if (!text.includes(%s.toLowerCase())) return false;
		const selected = el.checked === true || el.getAttribute("aria-checked") === "true";
		if (!selected) el.click();
		return true;
	})()`, s.fieldExpr(r), jsString(label))

	var matched bool
	if err := s.evaluate(expr, &matched); err != nil {
		return false, fmt.Errorf("click failed for field %s: %w", h, err)
	}
	return matched, nil
}

// SelectOption selects the first option whose text contains option.
func (s *ChromeSurface) SelectOption(_ context.Context, h types.FieldHandle, option string) (bool, error) {
	r, err := decodeFieldRef(h)
	if err != nil {
		return false, err
	}
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el || el.tagName !== "SELECT") return false;
		const wanted = %s.toLowerCase();
		for (let i = 0; i < el.options.length; i++) {
			if (el.options[i].text.toLowerCase().includes(wanted)) {
				el.selectedIndex = i;
				el.dispatchEvent(new Event("change", {bubbles: true}));
				return true;
			}
		}
		return false;
	})()`, s.fieldExpr(r), jsString(option))

	var matched bool
	if err := s.evaluate(expr, &matched); err != nil {
		return false, fmt.Errorf("select failed for field %s: %w", h, err)
	}
	return matched, nil
}

// CurrentPageURL returns the URL of the attached tab.
func (s *ChromeSurface) CurrentPageURL(_ context.Context) (string, error) {
	var url string
	if err := s.run(chromedp.Location(&url)); err != nil {
		return "", &ConnectivityError{Message: "cannot read page URL", Cause: err}
	}
	return url, nil
}
