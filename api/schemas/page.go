// File: api/schemas/page.go
// Description: Snapshot types describing a page's interactive surface at a
// single point in time. Snapshots are produced by a PageObserver and are
// never mutated after creation; every planning pass receives a fresh one.

package schemas

// Rect is the geometric bounding box of an element in CSS pixels,
// relative to the top-left of the document.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageElement is one interactive candidate on the page at snapshot time.
// Index is unique and order-stable within a single snapshot.
type PageElement struct {
	Index       int    `json:"index"`
	Tag         string `json:"tag"`
	Role        string `json:"role,omitempty"`
	Text        string `json:"text,omitempty"`
	Label       string `json:"label,omitempty"`
	Locator     string `json:"locator"`
	Rect        Rect   `json:"rect"`
	IsInput     bool   `json:"is_input"`
	InputType   string `json:"input_type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Required    bool   `json:"required"`
	Filled      bool   `json:"filled"`
	InViewport  bool   `json:"in_viewport"`
	// InActivePanel marks the element as belonging to the currently focused
	// modal/dialog/sub-form. When the snapshot reports HasActivePanel, only
	// these elements are reachable; everything else is occluded.
	InActivePanel bool `json:"in_active_panel"`
}

// PageSnapshot is an immutable capture of a page's interactive elements.
type PageSnapshot struct {
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Elements       []PageElement `json:"elements"`
	HasActivePanel bool          `json:"has_active_panel"`
}

// ElementByIndex returns the element with the given snapshot index,
// or nil if no such element exists.
func (s *PageSnapshot) ElementByIndex(idx int) *PageElement {
	for i := range s.Elements {
		if s.Elements[i].Index == idx {
			return &s.Elements[i]
		}
	}
	return nil
}
