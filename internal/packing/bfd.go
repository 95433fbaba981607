package packing

import "github.com/optifab/cutplanner/internal/model"

// bfd implements Best-Fit Decreasing bar packing: each piece goes into the
// open bar that leaves the least remaining length, opening new bars from the
// shortest qualifying stock family so long bars stay free for long pieces.
type bfd struct{}

// NewBFD returns the 1D best-fit-decreasing algorithm.
func NewBFD() Algorithm {
	return bfd{}
}

func (bfd) Name() string {
	return BFD1D
}

func (bfd) Geometry() model.Geometry {
	return model.Geometry1D
}

func (bfd) Execute(in Input) model.PackingResult {
	units := expand1D(in.Pieces1D)
	if len(units) == 0 {
		return model.PackingResult{}
	}
	sortUnits1D(units)

	stock := sortStock1D(in.Stock1D, false)
	remaining := make(map[string]int, len(stock))
	for _, s := range stock {
		remaining[s.ID] = s.Available
	}

	var bars []*openBar
	placed := make(map[string]int)

	for _, u := range units {
		// Tightest fit among open bars; ties keep bar open order.
		bestIdx, bestLeft := -1, 0
		for i, b := range bars {
			left := b.remainingAfter(u.length, in.Options.Kerf)
			if left < 0 {
				continue
			}
			if bestIdx < 0 || left < bestLeft {
				bestIdx, bestLeft = i, left
			}
		}

		done := false
		if bestIdx >= 0 {
			bars[bestIdx].place(u, in.Options.Kerf)
			done = true
		} else {
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
