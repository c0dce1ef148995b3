package fixtures

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed videos.json.tmpl
var videosTemplate string

// seq generates a sequence of integers from start to end (inclusive)
func seq(start, end int) []int {
	if start > end {
		return []int{}
	}
	result := make([]int, end-start+1)
	for i := range result {
		result[i] = start + i
	}
	return result
}

func mul(a, b int) int { return a * b }

func mod(a, b int) int { return a % b }

// stamp renders base shifted by hours in the export's ISO format.
func stamp(base time.Time, hours int) string {
	return base.Add(time.Duration(hours) * time.Hour).UTC().Format("2006-01-02T15:04:05.000000Z")
}

var templateFuncs = template.FuncMap{
	"seq":   seq,
	"mul":   mul,
	"mod":   mod,
	"stamp": stamp,
}

// RenderTemplate renders a template string with the given data
func RenderTemplate(templateContent string, data any) (string, error) {
	var buf bytes.Buffer
	tmpl := template.New("").Funcs(templateFuncs)
	tmpl, err := tmpl.Parse(templateContent)
	if err != nil {
		return "", err
	}
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Export describes a synthetic videos export: Videos videos spread across
// Creators creators, each with Snapshots hourly snapshots starting at Start.
type Export struct {
	Videos    int
	Snapshots int
	Creators  int
	Start     time.Time
}

func (e Export) withDefaults() Export {
	if e.Creators <= 0 {
		e.Creators = 1
	}
	if e.Start.IsZero() {
		e.Start = time.Date(2025, 11, 26, 0, 0, 0, 0, time.UTC)
	}
	return e
}

// RenderVideos renders the export as JSON in the shape the loader reads.
// Video i has id "video-i", creator "creator-(i mod Creators)" and views
// growing by 10*i per snapshot.
func RenderVideos(e Export) (string, error) {
	return RenderTemplate(videosTemplate, e.withDefaults())
}

// WriteVideos renders the export into dir/videos.json and returns the path.
func WriteVideos(dir string, e Export) (string, error) {
	body, err := RenderVideos(e)
	if err != nil {
		return "", fmt.Errorf("failed to render videos export: %w", err)
	}
	path := filepath.Join(dir, "videos.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
