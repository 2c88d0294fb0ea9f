package scraper

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureBase(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, filepath.Join(dir, "etoll_timeout_ABC123"), captureBase(dir, "etoll", "timeout_ABC123"))
	assert.Equal(t, filepath.Join(dir, "linkt_search_AB-12"), captureBase(dir, "linkt", "search_AB 12/"))
}

func TestPageDump_OneSectionPerFrame(t *testing.T) {
	frames := map[string]string{
		"main":     `<html><body><h1>Pay a toll notice</h1><script>var x = 1;</script></body></html>`,
		"frame[1]": `<table><tr><th>Motorway</th><th>Toll</th></tr><tr><td>M2</td><td>$4.50</td></tr></table>`,
	}

	md := pageDump("https://tollnotice.linkt.com.au/Search.asp", frames, []string{"main", "frame[1]"})

	assert.Contains(t, md, "# https://tollnotice.linkt.com.au/Search.asp")
	assert.Contains(t, md, "## main")
	assert.Contains(t, md, "Pay a toll notice")
	assert.NotContains(t, md, "var x")
	assert.Contains(t, md, "## frame[1]")
	assert.Contains(t, md, "M2")
	assert.Less(t, strings.Index(md, "## main"), strings.Index(md, "## frame[1]"))
}

