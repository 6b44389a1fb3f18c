package tower

import (
	"errors"
	"net/url"
	"strings"
)

// Instance is implemented by every typed resource.
type Instance interface {
	ID() int
}

// Kind describes one resource type: its name, its collection endpoint
// relative to the API prefix, and how to build it from a payload.
type Kind[T Instance] struct {
	Name     string
	Endpoint string
	Build    func(*API, RawPayload) (T, error)
}

// Collection is an ordered sequence of one resource kind. It is either built
// from an inline page, or realized lazily from a URL each time it is walked.
// When the realized sequence holds duplicate ids, Find returns the first.
type Collection[T Instance] struct {
	api    *API
	kind   Kind[T]
	inline []T
	count  int
	next   string // first URL to fetch when walking
	lazy   bool
}

// NewInlineCollection wraps every result of raw, in order. A Next link, if
// present, is followed when the collection is walked.
func NewInlineCollection[T Instance](api *API, kind Kind[T], raw *RawCollection) (*Collection[T], error) {
	c := &Collection[T]{api: api, kind: kind}
	if raw == nil {
		return c, nil
	}
	c.count = raw.Count
	c.inline = make([]T, 0, len(raw.Results))
	for _, r := range raw.Results {
		item, err := kind.Build(api, r)
		if err != nil {
			return nil, err
		}
		c.inline = append(c.inline, item)
	}
	if raw.Next != nil {
		c.next = *raw.Next
	}
	return c, nil
}

// NewURLCollection defers fetching until the collection is walked.
func NewURLCollection[T Instance](api *API, kind Kind[T], u string) *Collection[T] {
	return &Collection[T]{api: api, kind: kind, next: u, lazy: true}
}

// URL returns the address fetched when a lazy collection is walked.
func (c *Collection[T]) URL() string {
	if c.lazy {
		return c.next
	}
	return c.kind.Endpoint
}

// errStop ends a walk early without reporting an error.
var errStop = errors.New("stop")

// Each walks the collection in order, fetching pages as needed. A non-nil
// error from fn ends the walk and is returned.
func (c *Collection[T]) Each(fn func(T) error) error {
	for _, item := range c.inline {
		if err := fn(item); err != nil {
			return err
		}
	}
	next := c.next
	for next != "" {
		resp, err := c.api.Get(next)
		if err != nil {
			return err
		}
		page, err := decodeCollection(resp.Body, c.kind.Name+" collection")
		if err != nil {
			return err
		}
		for _, r := range page.Results {
			item, err := c.kind.Build(c.api, r)
			if err != nil {
				return err
			}
			if err := fn(item); err != nil {
				return err
			}
		}
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return nil
}

// All realizes the whole collection.
func (c *Collection[T]) All() ([]T, error) {
	var out []T
	err := c.Each(func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Find returns the first element with the given id, scanning in order and
// stopping as soon as it is seen.
func (c *Collection[T]) Find(id int) (T, error) {
	var found T
	hit := false
	err := c.Each(func(item T) error {
		if item.ID() == id {
			found = item
			hit = true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		var zero T
		return zero, err
	}
	if !hit {
		var zero T
		return zero, &NotFoundError{Kind: c.kind.Name, ID: id}
	}
	return found, nil
}

// Count returns the server-reported total. Lazy collections fetch the first
// page to read it.
func (c *Collection[T]) Count() (int, error) {
	if !c.lazy {
		return c.count, nil
	}
	resp, err := c.api.Get(c.next)
	if err != nil {
		return 0, err
	}
	page, err := decodeCollection(resp.Body, c.kind.Name+" collection")
	if err != nil {
		return 0, err
	}
	return page.Count, nil
}

// Where returns a lazy collection over the kind's endpoint filtered by query.
func (c *Collection[T]) Where(query url.Values) *Collection[T] {
	base := c.URL()
	if len(query) == 0 {
		return NewURLCollection(c.api, c.kind, base)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return NewURLCollection(c.api, c.kind, base+sep+query.Encode())
}

// Create POSTs attrs to the kind's endpoint and wraps the created resource.
func (c *Collection[T]) Create(attrs map[string]interface{}) (T, error) {
	var zero T
	resp, err := c.api.Post(c.kind.Endpoint, attrs)
	if err != nil {
		return zero, err
	}
	raw, err := decodePayload(resp.Body, c.kind.Name)
	if err != nil {
		return zero, err
	}
	return c.kind.Build(c.api, raw)
}
