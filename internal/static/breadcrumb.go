package static

import "dirserve/internal/fsutil"

// Breadcrumb is one navigation link from the root to the current directory.
type Breadcrumb struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

// Breadcrumbs returns the root crumb followed by one crumb per segment of p.
func Breadcrumbs(p fsutil.Path) []Breadcrumb {
	segs := p.Segments()
	crumbs := make([]Breadcrumb, 0, len(segs)+1)
	crumbs = append(crumbs, Breadcrumb{Href: "/", Label: "root"})
	for i, seg := range segs {
		crumbs = append(crumbs, Breadcrumb{
			Href:  p.Prefix(i + 1).String(),
			Label: seg,
		})
	}
	return crumbs
}
