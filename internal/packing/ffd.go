package packing

import "github.com/optifab/cutplanner/internal/model"

// ffd implements First-Fit Decreasing bar packing: each piece goes into the
// first open bar with room, opening new bars from the longest qualifying
// stock family.
type ffd struct{}

// NewFFD returns the 1D first-fit-decreasing algorithm.
func NewFFD() Algorithm {
	return ffd{}
}

func (ffd) Name() string {
	return FFD1D
}

func (ffd) Geometry() model.Geometry {
	return model.Geometry1D
}

func (ffd) Execute(in Input) model.PackingResult {
	units := expand1D(in.Pieces1D)
	if len(units) == 0 {
		return model.PackingResult{}
	}
	sortUnits1D(units)

	stock := sortStock1D(in.Stock1D, true)
	remaining := make(map[string]int, len(stock))
	for _, s := range stock {
		remaining[s.ID] = s.Available
	}

	var bars []*openBar
	placed := make(map[string]int)

	for _, u := range units {
		done := false
		for _, b := range bars {
			if b.fits(u.length, in.Options.Kerf) {
				b.place(u, in.Options.Kerf)
				done = true
				break
			}
		}
		if !done {
			for _, s := range stock {
				if s.Length >= u.length && remaining[s.ID] > 0 {
					remaining[s.ID]--
					b := &openBar{stockID: s.ID, length: s.Length}
					b.place(u, in.Options.Kerf)
					bars = append(bars, b)
					done = true
					break
				}
			}
		}
		if done {
			placed[u.originalID]++
		}
	}

	return finish1D(in, bars, units, placed)
}
