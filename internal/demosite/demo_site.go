// Package demosite serves pages that fire analytics beacons, for checking
// beaconcheck end to end against a real browser.
package demosite

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// 1x1 transparent GIF.
var pixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><title>{{.Title}}</title></head>
<body data-beacon="{{.BeaconPath}}" data-load="{{.LoadQuery}}" data-click="{{.ClickQuery}}">
<h1>{{.Title}}</h1>
{{if .ClickQuery}}<button id="submit" type="button">Place order</button>{{end}}
<script>
var d = document.body.dataset;
function beacon(q) {
	new Image().src = d.beacon + "?" + q + "&t=" + Date.now();
}
if (d.load) {
	window.addEventListener("load", function () { beacon(d.load); });
}
var btn = document.getElementById("submit");
if (btn && d.click) {
	btn.addEventListener("click", function () { beacon(d.click); });
}
</script>
</body>
</html>
`))

// Hit is one beacon request received by the site.
type Hit struct {
	Time   time.Time         `json:"time"`
	Params map[string]string `json:"params"`
}

// DemoSite is the fixture HTTP server.
type DemoSite struct {
	cfg   Config
	pages map[string]Page

	mu   sync.Mutex
	hits []Hit
}

// NewDemoSite creates a fixture site with the default pages.
func NewDemoSite(cfg Config) *DemoSite {
	pages := make(map[string]Page)
	for _, p := range Pages() {
		pages[p.Path] = p
	}
	return &DemoSite{cfg: cfg, pages: pages}
}

// BeaconPath is the path beacons are sent to.
func (s *DemoSite) BeaconPath() string {
	return "/b/ss/" + s.cfg.Account + "/1/"
}

// Handler returns the site's routes.
func (s *DemoSite) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.pageHandler)
	mux.HandleFunc(s.BeaconPath(), s.beaconHandler)
	mux.HandleFunc("/sample.csv", s.sampleHandler)
	mux.HandleFunc("/demo/hits", s.hitsHandler)
	return mux
}

// Start serves the site until the listener fails.
func (s *DemoSite) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site starting on http://localhost%s\n", addr)
	fmt.Printf("Sample CSV at http://localhost%s/sample.csv\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Hits returns a copy of the beacons received so far.
func (s *DemoSite) Hits() []Hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Hit(nil), s.hits...)
}

func (s *DemoSite) pageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Title      string
		BeaconPath string
		LoadQuery  string
		ClickQuery string
	}{
		Title:      page.Title,
		BeaconPath: s.BeaconPath(),
		LoadQuery:  encode(page.Params),
		ClickQuery: encode(page.ClickParams),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *DemoSite) beaconHandler(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[len(v)-1]
		}
	}
	s.mu.Lock()
	s.hits = append(s.hits, Hit{Time: time.Now().UTC(), Params: params})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(pixel)
}

func (s *DemoSite) hitsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Hits())
}

// sampleHandler serves a CSV for this site: one row per tracked page, the
// click row, a row that only passes through the click beacon and one that
// never passes.
func (s *DemoSite) sampleHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sample.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Url", "Fieldname", "Value", "Action"})
	_ = cw.Write([]string{base + "/", "pageName", "home", ""})
	_ = cw.Write([]string{base + "/products", "v2", "spring sale", ""})
	_ = cw.Write([]string{base + "/checkout", "pageName", "checkout", "click|#submit"})
	_ = cw.Write([]string{base + "/quiet", "events", "purchase", ""})
	_ = cw.Write([]string{base + "/quiet", "pageName", "quiet", ""})
	cw.Flush()
}

func encode(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}
