// Package surface - static.go implements the Surface contract over a static
// HTML document parsed with goquery. It backs the dry-run mode and is the
// test double for every package downstream of the surface: field writes land
// in an in-memory overlay and Advance simulates page navigation.
package surface

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/form-autofill/internal/types"
)

// StaticSurface implements Surface over parsed HTML pages.
type StaticSurface struct {
	mu          sync.Mutex
	url         string
	containers  []*goquery.Selection
	values      map[types.FieldHandle]string
	checked     map[types.FieldHandle]bool
	unreachable bool
}

// NewStatic parses html and returns a surface positioned at url.
func NewStatic(url, html string) (*StaticSurface, error) {
	s := &StaticSurface{
		values:  make(map[types.FieldHandle]string),
		checked: make(map[types.FieldHandle]bool),
	}
	if err := s.load(url, html); err != nil {
		return nil, err
	}
	return s, nil
}

// Advance replaces the current page, simulating a navigation. All field
// overlays from the previous page are discarded.
func (s *StaticSurface) Advance(url, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(url, html)
}

// SetUnreachable makes every page read fail with a ConnectivityError,
// simulating a lost browser connection.
func (s *StaticSurface) SetUnreachable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreachable = v
}

func (s *StaticSurface) load(url, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &ConnectivityError{Message: "cannot parse page HTML", Cause: err}
	}
	s.url = url
	s.containers = nil
	s.values = make(map[types.FieldHandle]string)
	s.checked = make(map[types.FieldHandle]bool)
	for _, sel := range containerSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			found.Each(func(_ int, c *goquery.Selection) {
				s.containers = append(s.containers, c)
			})
			break
		}
	}
	return nil
}

func (s *StaticSurface) container(ci int) *goquery.Selection {
	if ci < 0 || ci >= len(s.containers) {
		return nil
	}
	return s.containers[ci]
}

func (s *StaticSurface) field(r fieldRef) *goquery.Selection {
	c := s.container(r.Container)
	if c == nil {
		return nil
	}
	sel, ok := fieldSelectors[r.Kind]
	if !ok {
		return nil
	}
	found := c.Find(sel)
	if r.Index >= found.Length() {
		return nil
	}
	return found.Eq(r.Index)
}

// ListQuestionContainers returns a handle per question container.
func (s *StaticSurface) ListQuestionContainers(_ context.Context) ([]ContainerHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unreachable {
		return nil, &ConnectivityError{Message: "page unreachable"}
	}
	handles := make([]ContainerHandle, 0, len(s.containers))
	for i := range s.containers {
		handles = append(handles, encodeContainerHandle(i))
	}
	return handles, nil
}

// ExtractLabel applies the same label chain as the Chrome surface: heading
// selectors first, then the container's first line of text.
func (s *StaticSurface) ExtractLabel(_ context.Context, c ContainerHandle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, err := decodeContainerHandle(c)
	if err != nil {
		return "", err
	}
	container := s.container(ci)
	if container == nil {
		return "", nil
	}
	for _, sel := range labelSelectors {
		text := strings.TrimSpace(container.Find(sel).First().Text())
		if text != "" {
			return text, nil
		}
	}
	text := strings.TrimSpace(container.Text())
	if text == "" {
		return "", nil
	}
	return strings.SplitN(text, "\n", 2)[0], nil
}

// ExtractFields returns handles for every input in the container.
func (s *StaticSurface) ExtractFields(_ context.Context, c ContainerHandle) (types.FieldSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, err := decodeContainerHandle(c)
	if err != nil {
		return types.FieldSet{}, err
	}
	container := s.container(ci)
	if container == nil {
		return types.FieldSet{}, nil
	}
	count := func(kind types.FieldType) []types.FieldHandle {
		return makeHandles(ci, kind, container.Find(fieldSelectors[kind]).Length())
	}
	return types.FieldSet{
		Text:     count(types.FieldText),
		Textarea: count(types.FieldTextarea),
		Radio:    count(types.FieldRadio),
		Checkbox: count(types.FieldCheckbox),
		Select:   count(types.FieldSelect),
	}, nil
}

// ReadFieldValue returns the overlay value when one was written, otherwise
// the value present in the document.
func (s *StaticSurface) ReadFieldValue(_ context.Context, h types.FieldHandle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unreachable {
		return "", &ConnectivityError{Message: "page unreachable"}
	}
	if v, ok := s.values[h]; ok {
		return v, nil
	}
	r, err := decodeFieldRef(h)
	if err != nil {
		return "", err
	}
	field := s.field(r)
	if field == nil {
		return "", nil
	}
	switch r.Kind {
	case types.FieldText:
		return field.AttrOr("value", ""), nil
	case types.FieldTextarea:
		return strings.TrimSpace(field.Text()), nil
	case types.FieldSelect:
		selected := field.Find("option[selected]").First()
		return strings.TrimSpace(selected.Text()), nil
	default:
		return "", nil
	}
}

// SetFieldValue writes value into the in-memory overlay.
func (s *StaticSurface) SetFieldValue(_ context.Context, h types.FieldHandle, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := decodeFieldRef(h); err != nil {
		return err
	}
	s.values[h] = value
	return nil
}

// ClickOption matches the field's visible label against label and marks it
// selected. An already-checked checkbox is left untouched.
func (s *StaticSurface) ClickOption(_ context.Context, h types.FieldHandle, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := decodeFieldRef(h)
	if err != nil {
		return false, err
	}
	field := s.field(r)
	if field == nil {
		return false, nil
	}
	text := field.AttrOr("aria-label", "")
	if text == "" {
		text = strings.TrimSpace(field.Text())
	}
	if !strings.Contains(strings.ToLower(text), strings.ToLower(label)) {
		return false, nil
	}
	s.checked[h] = true
	return true, nil
}

// SelectOption selects the first option whose text contains option.
func (s *StaticSurface) SelectOption(_ context.Context, h types.FieldHandle, option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := decodeFieldRef(h)
	if err != nil {
		return false, err
	}
	field := s.field(r)
	if field == nil || r.Kind != types.FieldSelect {
		return false, nil
	}
	matched := false
	field.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		text := strings.TrimSpace(opt.Text())
		if strings.Contains(strings.ToLower(text), strings.ToLower(option)) {
			s.values[h] = text
			matched = true
			return false
		}
		return true
	})
	return matched, nil
}

// CurrentPageURL returns the simulated page URL.
func (s *StaticSurface) CurrentPageURL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unreachable {
		return "", &ConnectivityError{Message: "page unreachable"}
	}
	return s.url, nil
}

// Checked reports whether a radio or checkbox was clicked. Test helper.
func (s *StaticSurface) Checked(h types.FieldHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked[h]
}
