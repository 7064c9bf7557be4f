package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// parseOracle reads "1=7-6,2=6-4" into per-set scores.
func parseOracle(s string) (map[int]models.SetScore, error) {
	out := map[int]models.SetScore{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		set, score, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("oracle entry %q: want set=home-away", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(set))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("oracle entry %q: bad set number", part)
		}
		home, away, ok := strings.Cut(score, "-")
		if !ok {
			return nil, fmt.Errorf("oracle entry %q: want home-away", part)
		}
		h, err1 := strconv.Atoi(strings.TrimSpace(home))
		a, err2 := strconv.Atoi(strings.TrimSpace(away))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("oracle entry %q: bad score", part)
		}
		sc := models.SetScore{Home: h, Away: a}
		if !sc.Valid() {
			return nil, fmt.Errorf("oracle entry %q: negative score", part)
		}
		if _, dup := out[n]; dup {
			return nil, fmt.Errorf("oracle entry %q: set %d given twice", part, n)
		}
		out[n] = sc
	}
	return out, nil
}
