package packing

import (
	"sort"

	"github.com/optifab/cutplanner/internal/model"
)

// blf implements Bottom-Left Fill sheet packing: pieces are placed at the
// lowest, then leftmost feasible position, trying the natural orientation
// before the rotated one.
//
// Instead of stepping every integer coordinate, the scan enumerates
// candidate origins: (0,0) plus, for each existing placement, the points
// just right of it and just above it (kerf included). Every candidate is an
// integer point a full scan could also have produced, so containment and
// non-overlap hold unchanged while placement stays O(n^2) per piece.
type blf struct{}

// NewBottomLeft returns the 2D bottom-left-fill algorithm.
func NewBottomLeft() Algorithm {
	return blf{}
}

func (blf) Name() string {
	return BottomLeft2D
}

func (blf) Geometry() model.Geometry {
	return model.Geometry2D
}

func (blf) Execute(in Input) model.PackingResult {
	units := expand2D(in.Pieces2D)
	if len(units) == 0 {
		return model.PackingResult{}
	}
	sortUnits2D(units)

	stock := sortStock2D(in.Stock2D)
	remaining := make(map[string]int, len(stock))
	for _, s := range stock {
		remaining[s.ID] = s.Available
	}

	var sheets []*openSheet
	placed := make(map[string]int)

	for _, u := range units {
		done := false
		for _, sh := range sheets {
			if placeBottomLeft(sh, u, in.Options) {
				done = true
				break
			}
		}
		if !done {
			for _, s := range stock {
				if remaining[s.ID] > 0 && admits(s.Width, s.Height, u, in.Options.AllowRotation) {
					remaining[s.ID]--
					sh := &openSheet{stockID: s.ID, width: s.Width, height: s.Height}
					if placeBottomLeft(sh, u, in.Options) {
						sheets = append(sheets, sh)
						done = true
					}
					break
				}
			}
		}
		if done {
			placed[u.originalID]++
		}
	}

	return finish2D(in, sheets, units, placed)
}

// admits reports whether a fresh sheet of the given dimensions can hold the
// unit in at least one orientation.
func admits(sheetW, sheetH int, u unit2D, allowRotation bool) bool {
	for _, o := range orientations(u, allowRotation) {
		if o.w <= sheetW && o.h <= sheetH {
			return true
		}
	}
	return false
}

// placeBottomLeft scans candidate origins in (y, x) ascending order and
// places the unit at the first position that is contained in the sheet and
// whose footprint clears every existing placement's kerf-inflated box.
func placeBottomLeft(sh *openSheet, u unit2D, opts Options) bool {
	candidates := candidateOrigins(sh, opts.Kerf)
	for _, o := range orientations(u, opts.AllowRotation) {
		for _, c := range candidates {
			if c.x+o.w > sh.width || c.y+o.h > sh.height {
				continue
			}
			if clears(sh, rect{x: c.x, y: c.y, w: o.w, h: o.h}, opts.Kerf) {
				sh.place(u, c.x, c.y, o.w, o.h, o.rotated)
				return true
			}
		}
	}
	return false
}

type point struct {
	x, y int
}

func candidateOrigins(sh *openSheet, kerf int) []point {
	candidates := []point{{0, 0}}
	for _, p := range sh.placements {
		candidates = append(candidates,
			point{x: p.X + p.Width + kerf, y: p.Y},
			point{x: p.X, y: p.Y + p.Height + kerf},
		)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].y != candidates[j].y {
			return candidates[i].y < candidates[j].y
		}
		return candidates[i].x < candidates[j].x
	})
	return candidates
}

func clears(sh *openSheet, footprint rect, kerf int) bool {
	for _, p := range sh.placements {
		box := rect{x: p.X, y: p.Y, w: p.Width, h: p.Height}.inflate(kerf)
		if overlaps(footprint, box) {
			return false
		}
	}
	return true
}
