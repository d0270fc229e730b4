package validate

import "strings"

// SampleLines is the number of initial lines buffered for delimiter
// detection and header analysis.
const SampleLines = 50

// maxDetectLines is how many non-blank sample lines feed the scoring.
const maxDetectLines = 20

// delimiterCandidates is the fixed candidate set, in priority order.
// Ties in score resolve to the earlier candidate.
var delimiterCandidates = []byte{',', '|', '\t', '*', ';', ':'}

// delimiterProfile accumulates per-line delimiter counts for one
// candidate during detection. Not retained afterwards.
type delimiterProfile struct {
	delim  byte
	counts []int
}

// score rates the candidate's consistency across the sample. A candidate
// appearing with the identical nonzero count c on every line scores
// c*100, so perfect consistency dominates. Otherwise, up to 3 distinct
// counts are tolerated and scored avg/(1+variance). The second return is
// false when the candidate is not viable (absent everywhere, too noisy,
// or an empty sample).
func (p delimiterProfile) score() (float64, bool) {
	if len(p.counts) == 0 {
		return 0, false
	}

	sum := 0
	allZero := true
	distinct := make(map[int]struct{}, 4)
	for _, c := range p.counts {
		if c != 0 {
			allZero = false
		}
		distinct[c] = struct{}{}
		sum += c
	}
	if allZero {
		return 0, false
	}

	if len(distinct) == 1 {
		return float64(p.counts[0]) * 100, true
	}

	if len(distinct) <= 3 {
		avg := float64(sum) / float64(len(p.counts))
		var variance float64
		for _, c := range p.counts {
			d := float64(c) - avg
			variance += d * d
		}
		variance /= float64(len(p.counts))
		if avg > 0 {
			return avg / (1 + variance), true
		}
	}

	return 0, false
}

// DetectDelimiter infers the field separator from a sample of initial
// lines. It counts each candidate outside quoted spans on the first 20
// non-blank lines and picks the highest-scoring candidate; comma is the
// fallback when nothing scores.
func DetectDelimiter(sample []string) byte {
	profiles := make([]delimiterProfile, len(delimiterCandidates))
	for i, d := range delimiterCandidates {
		profiles[i] = delimiterProfile{delim: d}
	}

	scored := 0
	for _, line := range sample {
		if scored >= maxDetectLines {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		scored++
		for i := range profiles {
			profiles[i].counts = append(profiles[i].counts, CountOutsideQuotes(line, profiles[i].delim))
		}
	}

	var best byte
	bestScore := -1.0
	for _, p := range profiles {
		if s, ok := p.score(); ok && s > bestScore {
			bestScore = s
			best = p.delim
		}
	}

	if best == 0 {
		return ','
	}
	return best
}
