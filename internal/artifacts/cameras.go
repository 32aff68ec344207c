package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
)

// Camera is one entry of the trainer's cameras.json.
type Camera struct {
	ID       int          `json:"id"`
	ImgName  string       `json:"img_name"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Position []float64    `json:"position"`
	Rotation [][]float64  `json:"rotation"`
	FX       float64      `json:"fx"`
	FY       float64      `json:"fy"`
}

// ReadCameras parses a cameras.json file.
func ReadCameras(path string) ([]Camera, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cameras.json: %w", err)
	}
	var cams []Camera
	if err := json.Unmarshal(data, &cams); err != nil {
		return nil, fmt.Errorf("parse cameras.json: %w", err)
	}
	return cams, nil
}
