package source

import "context"

func (c *Client) Posts(ctx context.Context, opts FetchOptions) ([]ContentItem, error) {
	return c.contentItems(ctx, "posts", KindPost, opts)
}

func (c *Client) Pages(ctx context.Context, opts FetchOptions) ([]ContentItem, error) {
	return c.contentItems(ctx, "pages", KindPage, opts)
}

func (c *Client) Categories(ctx context.Context) ([]Taxonomy, error) {
	return c.terms(ctx, "categories")
}

func (c *Client) Tags(ctx context.Context) ([]Taxonomy, error) {
	return c.terms(ctx, "tags")
}

func (c *Client) Users(ctx context.Context) ([]Author, error) {
	wires, err := FetchAll[wireUser](ctx, c, "users", FetchOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Author, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toAuthor())
	}
	return out, nil
}

// Media returns one attachment, or nil when the source does not know it.
func (c *Client) Media(ctx context.Context, id int64) (*Media, error) {
	w, err := FetchSingle[wireMedia](ctx, c, "media", id)
	if err != nil || w == nil {
		return nil, err
	}
	return &Media{ID: w.ID, SourceURL: w.SourceURL}, nil
}

func (c *Client) contentItems(ctx context.Context, collection string, kind Kind, opts FetchOptions) ([]ContentItem, error) {
	wires, err := FetchAll[wireContent](ctx, c, collection, opts)
	if err != nil {
		return nil, err
	}
	out := make([]ContentItem, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toItem(kind))
	}
	return out, nil
}

func (c *Client) terms(ctx context.Context, collection string) ([]Taxonomy, error) {
	wires, err := FetchAll[wireTerm](ctx, c, collection, FetchOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Taxonomy, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toTaxonomy())
	}
	return out, nil
}
