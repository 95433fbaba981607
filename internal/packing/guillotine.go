package packing

import "github.com/optifab/cutplanner/internal/model"

// guillotine implements maximal-rectangles guillotine split packing. Each
// sheet keeps a list of free rectangles; a placement consumes the free
// rectangle with the best short-side fit and splits the leftover with a
// vertical cut to the right of the piece and a horizontal cut above it,
// width-first. Strips narrower than the kerf are discarded.
type guillotine struct{}

// NewGuillotine returns the 2D guillotine algorithm.
func NewGuillotine() Algorithm {
	return guillotine{}
}

func (guillotine) Name() string {
	return Guillotine2D
}

func (guillotine) Geometry() model.Geometry {
	return model.Geometry2D
}

func (guillotine) Execute(in Input) model.PackingResult {
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
			if placeGuillotine(sh, u, in.Options) {
				done = true
				break
			}
		}
		if !done {
			for _, s := range stock {
				if remaining[s.ID] > 0 && admitsGuillotine(s.Width, s.Height, u, in.Options) {
					remaining[s.ID]--
					sh := &openSheet{
						stockID: s.ID,
						width:   s.Width,
						height:  s.Height,
						free:    []rect{{x: 0, y: 0, w: s.Width, h: s.Height}},
					}
					if placeGuillotine(sh, u, in.Options) {
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

// admitsGuillotine reports whether a fresh sheet can hold the unit in some
// orientation. Both axes must admit piece + kerf, matching the free-rect
// fit rule.
func admitsGuillotine(sheetW, sheetH int, u unit2D, opts Options) bool {
	for _, o := range orientations(u, opts.AllowRotation) {
		if o.w+opts.Kerf <= sheetW && o.h+opts.Kerf <= sheetH {
			return true
		}
	}
	return false
}

// placeGuillotine places the unit into the free rectangle minimizing the
// shorter leftover side. The natural orientation is tried before the
// rotation; ties between free rectangles keep list order.
func placeGuillotine(sh *openSheet, u unit2D, opts Options) bool {
	for _, o := range orientations(u, opts.AllowRotation) {
		bestIdx, bestShort := -1, 0
		for i, r := range sh.free {
			if o.w+opts.Kerf > r.w || o.h+opts.Kerf > r.h {
				continue
			}
			short := min(r.w-(o.w+opts.Kerf), r.h-(o.h+opts.Kerf))
			if bestIdx < 0 || short < bestShort {
				bestIdx, bestShort = i, short
			}
		}
		if bestIdx < 0 {
			continue
		}

		chosen := sh.free[bestIdx]
		sh.place(u, chosen.x, chosen.y, o.w, o.h, o.rotated)
		sh.free = append(sh.free[:bestIdx], sh.free[bestIdx+1:]...)
		sh.free = append(sh.free, splitFreeRect(chosen, o.w, o.h, opts.Kerf)...)
		return true
	}
	return false
}

// splitFreeRect cuts the leftover of a consumed free rectangle width-first:
// the strip right of the piece takes the full height, the strip above it
// only the piece width (kerf included). Strips narrower than the kerf, or
// empty, are discarded.
func splitFreeRect(r rect, w, h, kerf int) []rect {
	var out []rect

	right := rect{x: r.x + w + kerf, y: r.y, w: r.w - (w + kerf), h: r.h}
	if right.w > 0 && right.w >= kerf {
		out = append(out, right)
	}

	top := rect{x: r.x, y: r.y + h + kerf, w: w + kerf, h: r.h - (h + kerf)}
	if top.h > 0 && top.h >= kerf {
		out = append(out, top)
	}

	return out
}
