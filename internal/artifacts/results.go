package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Metrics are the image-quality numbers the external evaluation writes per
// method key ("ours_30000").
type Metrics struct {
	SSIM  float64 `json:"SSIM"`
	PSNR  float64 `json:"PSNR"`
	LPIPS float64 `json:"LPIPS"`
}

// Results maps method key → metrics, the shape of results.json.
type Results map[string]Metrics

// ReadResults parses a results.json file.
func ReadResults(path string) (Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results.json: %w", err)
	}
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse results.json: %w", err)
	}
	return r, nil
}

// Methods returns the method keys in sorted order for stable output.
func (r Results) Methods() []string {
	methods := make([]string, 0, len(r))
	for m := range r {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// PerView maps method key → metric name → image name → value, the shape of
// per_view.json.
type PerView map[string]map[string]map[string]float64

// ReadPerView parses a per_view.json file.
func ReadPerView(path string) (PerView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read per_view.json: %w", err)
	}
	var pv PerView
	if err := json.Unmarshal(data, &pv); err != nil {
		return nil, fmt.Errorf("parse per_view.json: %w", err)
	}
	return pv, nil
}

// Views returns the image names for one method+metric in sorted order.
func (pv PerView) Views(method, metric string) []string {
	byImage := pv[method][metric]
	views := make([]string, 0, len(byImage))
	for name := range byImage {
		views = append(views, name)
	}
	sort.Strings(views)
	return views
}
