package letter

// Plan converts segments into layout blocks with their vertical gaps.
//
// The rhythm, in gap units:
//   - date: 1; contact lines: 0, followed by a spacer block with 1
//   - salutation, body, blank: 1
//   - closing: 0, and blank lines directly below a closing are hidden so
//     the signature sits under the sign-off
//   - bullet: 1, except the last bullet of the document which gets 0
func Plan(segments []Segment) []Block {
	blocks := make([]Block, 0, len(segments)+1)
	afterClosing := false

	for i, seg := range segments {
		switch seg.Kind {
		case KindHeaderDate:
			blocks = append(blocks, Block{Kind: seg.Kind, Runs: seg.Runs, GapAfter: 1})

		case KindHeaderContact:
			blocks = append(blocks, Block{Kind: seg.Kind, Runs: seg.Runs})
			if i+1 >= len(segments) || segments[i+1].Kind != KindHeaderContact {
				blocks = append(blocks, Block{Kind: KindSpacer, GapAfter: 1})
			}

		case KindBlank:
			if afterClosing {
				blocks = append(blocks, Block{Kind: KindBlank, Hidden: true})
				continue
			}
			blocks = append(blocks, Block{Kind: KindBlank, GapAfter: 1})

		case KindClosing:
			blocks = append(blocks, Block{Kind: seg.Kind, Runs: seg.Runs})
			afterClosing = true
			continue

		default:
			blocks = append(blocks, Block{Kind: seg.Kind, Runs: seg.Runs, GapAfter: 1})
		}

		afterClosing = false
	}

	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Kind == KindBullet {
			blocks[i].GapAfter = 0
			blocks[i].Last = true
			break
		}
	}

	return blocks
}

// Layout segments text and plans its blocks in one step.
func Layout(text string) []Block {
	return Plan(Split(text))
}

// Summary counts what a plan contains. Both renderers report the same
// summary for the same plan.
type Summary struct {
	HeaderLines int
	TextBlocks  int
	Bullets     int
	Hidden      int
	Gaps        []int
}

// Summarize builds a Summary for blocks.
func Summarize(blocks []Block) Summary {
	s := Summary{Gaps: make([]int, 0, len(blocks))}
	for _, b := range blocks {
		s.Gaps = append(s.Gaps, b.GapAfter)
		switch {
		case b.Hidden:
			s.Hidden++
		case b.Kind.IsHeader():
			s.HeaderLines++
		case b.Kind == KindBullet:
			s.Bullets++
			s.TextBlocks++
		case b.Kind.HasText():
			s.TextBlocks++
		}
	}
	return s
}
