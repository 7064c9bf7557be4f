// Package segment splits point-by-point markup into set headers and raw game blocks.
//
// The segmenter is structural only: it never decides which row belongs to which
// player, in which order blocks must be read, or who won a game.
package segment

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/scoring"
)

// Result is the structural view of one match's point-by-point section.
type Result struct {
	SetHeaders       []models.SetHeader
	RawBlocks        []models.RawBlock
	BlocksBySet      map[int][]models.RawBlock
	SortedSetIndices []int
	// OrphanBlocks counts game blocks found before the first set header.
	OrphanBlocks int
	// SkippedTokens counts point tokens outside the score vocabulary.
	SkippedTokens int
}

// Empty reports whether no game block was found.
func (r Result) Empty() bool {
	return len(r.RawBlocks) == 0
}

func emptyResult() Result {
	return Result{BlocksBySet: map[int][]models.RawBlock{}}
}

type role int

const (
	roleNone role = iota
	roleSetHeader
	roleSetTitle
	roleSetDuration
	roleGame
	roleServer
	roleGameScore
	roleRow
	rolePoint
)

var (
	firstIntRegex   = regexp.MustCompile(`\d+`)
	clockRegex      = regexp.MustCompile(`(\d+):(\d{1,2})`)
	hoursRegex      = regexp.MustCompile(`(?i)(\d+)\s*h(?:ours?|rs?)?\D*(\d+)?`)
	tallyRegex      = regexp.MustCompile(`^\s*(\d+)\s*[-:]\s*(\d+)\s*$`)
	rowSplitterFunc = func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' }
)

type headerState struct {
	indexAttr string
	title     strings.Builder
	duration  strings.Builder
}

type gameState struct {
	serverID   string
	serverText strings.Builder
	score      strings.Builder
	rows       [][]string
	row        []string
	rowText    strings.Builder
	rowPoints  int
	inRow      bool
	point      strings.Builder
}

type segmenter struct {
	d      Dialect
	res    Result
	roles  []role
	header *headerState
	game   *gameState

	currentSet int
	seenSets   map[int]bool
}

// Segment splits markup using the default dialect.
func Segment(markup string) Result {
	return SegmentWithDialect(markup, DefaultDialect())
}

// SegmentWithDialect splits markup. It never fails: malformed input yields an
// empty result with zero set headers and zero blocks.
func SegmentWithDialect(markup string, d Dialect) Result {
	s := &segmenter{
		d:        d.WithDefaults(),
		res:      emptyResult(),
		seenSets: map[int]bool{},
	}
	err := Scan(markup, Visitor{
		Start: s.start,
		End:   s.end,
		Text:  s.text,
	})
	if err != nil {
		return emptyResult()
	}

	for idx := range s.res.BlocksBySet {
		s.res.SortedSetIndices = append(s.res.SortedSetIndices, idx)
	}
	sort.Ints(s.res.SortedSetIndices)
	return s.res
}

func (s *segmenter) classify(el Element) role {
	switch {
	case el.HasClass(s.d.SetHeaderClass):
		return roleSetHeader
	case el.HasClass(s.d.SetTitleClass):
		return roleSetTitle
	case el.HasClass(s.d.SetDurationClass):
		return roleSetDuration
	case el.HasClass(s.d.GameClass):
		return roleGame
	case el.HasClass(s.d.ServerClass):
		return roleServer
	case el.HasClass(s.d.GameScoreClass):
		return roleGameScore
	case el.HasClass(s.d.RowClass):
		return roleRow
	case el.HasClass(s.d.PointClass):
		return rolePoint
	}
	return roleNone
}

func (s *segmenter) start(el Element) {
	r := s.classify(el)
	s.roles = append(s.roles, r)

	switch r {
	case roleSetHeader:
		h := &headerState{}
		h.indexAttr, _ = el.Attr(s.d.SetIndexAttr)
		s.header = h
	case roleGame:
		if s.game == nil {
			s.game = &gameState{}
		}
	case roleServer:
		if s.game != nil {
			if id, ok := el.Attr(s.d.ServerAttr); ok {
				s.game.serverID = strings.TrimSpace(id)
			}
		}
	case roleRow:
		if s.game != nil && !s.game.inRow {
			s.game.inRow = true
			s.game.row = nil
			s.game.rowText.Reset()
			s.game.rowPoints = 0
		}
	case rolePoint:
		if s.game != nil {
			s.game.point.Reset()
		}
	}
}

func (s *segmenter) end(Element) {
	if len(s.roles) == 0 {
		return
	}
	r := s.roles[len(s.roles)-1]
	s.roles = s.roles[:len(s.roles)-1]

	switch r {
	case roleSetHeader:
		s.finishHeader()
	case roleGame:
		if !s.inRole(roleGame) {
			s.finishGame()
		}
	case roleRow:
		if s.game != nil && s.game.inRow && !s.inRole(roleRow) {
			s.finishRow()
		}
	case rolePoint:
		if s.game != nil && s.game.inRow {
			s.game.rowPoints++
			s.addToken(s.game.point.String())
		}
	}
}

// inRole reports whether an element with the role is still open.
func (s *segmenter) inRole(r role) bool {
	for _, open := range s.roles {
		if open == r {
			return true
		}
	}
	return false
}

func (s *segmenter) innermost() role {
	for i := len(s.roles) - 1; i >= 0; i-- {
		if s.roles[i] != roleNone {
			return s.roles[i]
		}
	}
	return roleNone
}

func (s *segmenter) text(t string) {
	switch s.innermost() {
	case roleSetHeader, roleSetTitle:
		if s.header != nil {
			s.header.title.WriteString(t)
		}
	case roleSetDuration:
		if s.header != nil {
			s.header.duration.WriteString(t)
		}
	case roleServer:
		if s.game != nil {
			s.game.serverText.WriteString(t)
		}
	case roleGameScore:
		if s.game != nil {
			s.game.score.WriteString(t)
		}
	case roleRow:
		if s.game != nil && s.game.inRow {
			s.game.rowText.WriteString(t)
			s.game.rowText.WriteByte(' ')
		}
	case rolePoint:
		if s.game != nil {
			s.game.point.WriteString(t)
		}
	}
}

func (s *segmenter) addToken(raw string) {
	tok := strings.ToUpper(strings.TrimSpace(raw))
	if tok == "" {
		return
	}
	if !scoring.IsValidToken(tok) {
		s.res.SkippedTokens++
		return
	}
	s.game.row = append(s.game.row, tok)
}

func (s *segmenter) finishRow() {
	g := s.game
	if g.rowPoints == 0 {
		// Rows without point elements carry their tokens as plain text.
		for _, f := range strings.FieldsFunc(g.rowText.String(), rowSplitterFunc) {
			s.addToken(f)
		}
	}
	g.rows = append(g.rows, g.row)
	g.row = nil
	g.inRow = false
}

func (s *segmenter) finishHeader() {
	h := s.header
	s.header = nil
	if h == nil {
		return
	}

	idx := 0
	if v, err := strconv.Atoi(strings.TrimSpace(h.indexAttr)); err == nil && v > 0 {
		idx = v
	} else if m := firstIntRegex.FindString(h.title.String()); m != "" {
		if v, err := strconv.Atoi(m); err == nil && v > 0 {
			idx = v
		}
	}
	if idx == 0 {
		idx = len(s.res.SetHeaders) + 1
	}

	s.currentSet = idx
	if s.seenSets[idx] {
		return
	}
	s.seenSets[idx] = true
	s.res.SetHeaders = append(s.res.SetHeaders, models.SetHeader{
		SetIndex:        idx,
		DurationMinutes: parseDuration(h.duration.String()),
	})
}

func (s *segmenter) finishGame() {
	g := s.game
	s.game = nil
	if g == nil {
		return
	}
	if s.currentSet == 0 {
		s.res.OrphanBlocks++
		return
	}

	server := g.serverID
	if server == "" {
		server = strings.TrimSpace(g.serverText.String())
	}

	block := models.RawBlock{
		SetIndex:         s.currentSet,
		BlockIndex:       len(s.res.BlocksBySet[s.currentSet]),
		ServerIdentifier: server,
		BlockFinalScore:  parseTally(g.score.String()),
	}
	if len(g.rows) > 0 {
		block.Row1Points = g.rows[0]
	}
	if len(g.rows) > 1 {
		block.Row2Points = g.rows[1]
	}

	s.res.RawBlocks = append(s.res.RawBlocks, block)
	s.res.BlocksBySet[s.currentSet] = append(s.res.BlocksBySet[s.currentSet], block)
}

// parseDuration reads "58 min", "1:05" or "1h 5m" as minutes.
func parseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if m := clockRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return h*60 + mins
	}
	if m := hoursRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		return h*60 + mins
	}
	if m := firstIntRegex.FindString(s); m != "" {
		v, _ := strconv.Atoi(m)
		return v
	}
	return 0
}

func parseTally(s string) *models.ScorePair {
	m := tallyRegex.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	first, err1 := strconv.Atoi(m[1])
	second, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return nil
	}
	return &models.ScorePair{First: first, Second: second}
}
