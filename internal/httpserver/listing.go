package httpserver

import (
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"

	"dirserve/internal/static"
)

const pagesTemplate = `{{define "listing"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Index of {{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 20px; background: #f5f5f7; }
        .container { max-width: 1100px; margin: 0 auto; background: white; border-radius: 10px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); overflow: hidden; }
        .breadcrumbs { background: #f8f9fa; padding: 14px 24px; border-bottom: 1px solid #e9ecef; }
        .breadcrumbs a { color: #0066cc; text-decoration: none; }
        .breadcrumbs a:hover { text-decoration: underline; }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 10px 24px; border-bottom: 1px solid #f0f0f0; text-align: left; }
        td.size, th.size { text-align: right; white-space: nowrap; }
        td.mtime { color: #666; white-space: nowrap; }
        td.name a { color: #333; text-decoration: none; }
        td.name a:hover { color: #0066cc; }
        td.name img { height: 24px; vertical-align: middle; margin-right: 8px; }
        .empty { text-align: center; padding: 48px 24px; color: #666; }
        .footer { background: #f8f9fa; padding: 14px 24px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
<div class="container">
    <nav class="breadcrumbs">
        {{range $i, $c := .Breadcrumbs}}{{if $i}} / {{end}}<a href="{{$c.Href}}">{{$c.Label}}</a>{{end}}
    </nav>
    {{if .Entries}}
    <table class="entries">
        <thead><tr><th>Name</th><th>Modified</th><th class="size">Size</th></tr></thead>
        <tbody>
        {{range .Entries}}
            <tr class="{{if .IsDir}}dir{{else}}file{{end}}">
                <td class="name">{{if .Thumb}}<img src="{{.Thumb}}" alt="">{{end}}<a href="{{.Href}}">{{.Name}}{{if .IsDir}}/{{end}}</a></td>
                <td class="mtime">{{.MTime}}</td>
                <td class="size">{{if not .IsDir}}{{.Size}}{{end}}</td>
            </tr>
        {{end}}
        </tbody>
    </table>
    {{else}}
    <div class="empty">This directory is empty.</div>
    {{end}}
    <div class="footer"><a class="archive" href="{{.ArchiveHref}}">Download this directory as zip</a></div>
</div>
</body>
</html>
{{end}}
{{define "notfound"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Not Found</title></head>
<body><h2>No file found at path: {{.}}</h2><p><a href="/">Back to root</a></p></body>
</html>
{{end}}`

func parsePages() (*template.Template, error) {
	return template.New("pages").Parse(pagesTemplate)
}

type listingPage struct {
	Title       string
	Breadcrumbs []static.Breadcrumb
	Entries     []pageEntry
	ArchiveHref string
}

type pageEntry struct {
	Href  string
	Name  string
	MTime string
	Size  string
	IsDir bool
	Thumb string
}

func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, res *static.DirectoryResult) {
	entries := make([]pageEntry, len(res.Entries))
	for i, e := range res.Entries {
		entries[i] = pageEntry{
			Href:  e.Href,
			Name:  e.Name,
			MTime: e.MTime,
			Size:  humanize.IBytes(uint64(e.Size)),
			IsDir: e.IsDir,
			Thumb: e.Thumb,
		}
	}
	page := listingPage{
		Title:       res.CurrentPath,
		Breadcrumbs: res.Breadcrumbs,
		Entries:     entries,
		ArchiveHref: s.cfg.ArchivePrefix + res.Path.String(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "listing", page); err != nil {
		s.log.Error("render listing", "path", res.CurrentPath, "err", err)
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	if err := s.pages.ExecuteTemplate(w, "notfound", r.URL.Path); err != nil {
		s.log.Error("render not found", "path", r.URL.Path, "err", err)
	}
}
