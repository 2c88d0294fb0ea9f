package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// dumpConverter renders page dumps. The table plugin keeps result rows
// readable in the dump.
var dumpConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// captureBase builds "<dir>/<source>_<label>" with label sanitised for
// use as a file name.
func captureBase(dir, source, label string) string {
	name := source + "_" + strings.Trim(unsafeName.ReplaceAllString(label, "-"), "-")
	return filepath.Join(dir, name)
}

// pageDump converts the frames' HTML into one markdown document with a
// heading per frame.
func pageDump(url string, frames map[string]string, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", url)
	for _, name := range order {
		md, err := dumpConverter.ConvertString(frames[name], converter.WithDomain(url))
		if err != nil {
			md = "_conversion failed: " + err.Error() + "_"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, strings.TrimSpace(md))
	}
	return b.String()
}

// Capture writes a full-page PNG screenshot and a markdown dump of every
// frame to the capture directory. Failures are logged and ignored; with
// no capture directory configured Capture does nothing.
func (s *Session) Capture(ctx context.Context, label string) {
	if s.captureDir == "" {
		return
	}
	if err := os.MkdirAll(s.captureDir, 0o755); err != nil {
		slog.Warn("capture: cannot create directory", "dir", s.captureDir, "error", err)
		return
	}
	base := captureBase(s.captureDir, string(s.source), label)
	p := s.page.Context(ctx)

	if png, err := p.Screenshot(true, nil); err != nil {
		slog.Warn("capture: screenshot failed", "label", label, "error", err)
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		slog.Warn("capture: write screenshot failed", "path", base+".png", "error", err)
	}

	frames := map[string]string{}
	var order []string
	for _, f := range s.Page().Frames(ctx) {
		html, err := f.HTML(ctx)
		if err != nil {
			continue
		}
		frames[f.Name()] = html
		order = append(order, f.Name())
	}
	if len(order) == 0 {
		return
	}
	if err := os.WriteFile(base+".md", []byte(pageDump(s.url, frames, order)), 0o644); err != nil {
		slog.Warn("capture: write dump failed", "path", base+".md", "error", err)
		return
	}
	slog.Info("capture written", "source", s.source, "label", label, "path", base)
}
