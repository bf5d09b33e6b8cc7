package httpserver

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"strconv"
	"strings"

	// decoders
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"dirserve/internal/fsutil"
	"dirserve/internal/static"
)

// handleThumb renders a JPEG preview of an image file on every request.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	if !readMethod(w, r) {
		return
	}
	p, err := fsutil.Sanitize(strings.TrimPrefix(r.URL.EscapedPath(), thumbPrefix))
	if err != nil {
		http.Error(w, "bad request path", http.StatusBadRequest)
		return
	}
	if !static.IsImage(p.Base()) {
		http.NotFound(w, r)
		return
	}
	abs, err := p.Join(s.resolver.Root())
	if err != nil {
		http.NotFound(w, r)
		return
	}
	md, err := static.Classify(abs)
	if err != nil || md.Kind != static.NodeFile {
		http.NotFound(w, r)
		return
	}

	b, err := makeThumb(abs, s.cfg.ThumbSize)
	if err != nil {
		s.log.Warn("thumbnail", "path", p.Display(), "err", err)
		http.Error(w, "cannot decode image", http.StatusUnsupportedMediaType)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func makeThumb(absPath string, max int) ([]byte, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, os.ErrInvalid
	}
	if max <= 0 {
		max = 256
	}

	nw, nh := fitWithin(w, h, max)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	enc := jpeg.Options{Quality: 82}
	if err := jpeg.Encode(&out, dst, &enc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitWithin scales w x h down to fit a max x max box, keeping the aspect
// ratio. Images already inside the box are left alone.
func fitWithin(w, h, max int) (int, int) {
	nw, nh := w, h
	if w > h {
		if w > max {
			nw = max
			nh = int(float64(h) * (float64(max) / float64(w)))
		}
	} else if h > max {
		nh = max
		nw = int(float64(w) * (float64(max) / float64(h)))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
