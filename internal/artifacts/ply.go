// Package artifacts reads the file formats at the boundary with the external
// trainer: PLY point clouds, cameras.json, results.json/per_view.json, and
// the fixed model-directory layout they live in. It never writes any of
// them; the formats are owned by the wrapped tools.
package artifacts

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PLYInfo summarizes a PLY header. For Gaussian Splatting checkpoints the
// vertex count is the number of Gaussians.
type PLYInfo struct {
	Format     string // "ascii", "binary_little_endian", "binary_big_endian"
	Vertices   int
	Properties []string // vertex property names, in order
	SizeBytes  int64
}

// maxHeaderLines bounds header scanning so a corrupt file cannot make us
// read gigabytes looking for end_header.
const maxHeaderLines = 4096

// ReadPLYHeader parses the header of the PLY file at path without reading
// the body.
func ReadPLYHeader(path string) (*PLYInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ply: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat ply: %w", err)
	}

	sc := bufio.NewScanner(f)
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "ply" {
		return nil, fmt.Errorf("%s: not a PLY file", path)
	}

	info := &PLYInfo{SizeBytes: fi.Size()}
	inVertex := false
	for i := 0; sc.Scan(); i++ {
		if i > maxHeaderLines {
			return nil, fmt.Errorf("%s: header exceeds %d lines", path, maxHeaderLines)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) >= 2 {
				info.Format = fields[1]
			}
		case "element":
			inVertex = len(fields) >= 3 && fields[1] == "vertex"
			if inVertex {
				n, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, fmt.Errorf("%s: bad vertex count %q", path, fields[2])
				}
				info.Vertices = n
			}
		case "property":
			// property <type> <name>, or property list ... <name>
			if inVertex && len(fields) >= 3 {
				info.Properties = append(info.Properties, fields[len(fields)-1])
			}
		case "end_header":
			if info.Format == "" {
				return nil, fmt.Errorf("%s: header has no format line", path)
			}
			return info, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ply header: %w", err)
	}
	return nil, fmt.Errorf("%s: end_header not found", path)
}
