package segment

// Dialect names the classes and attributes a markup source uses. Only the
// scanners depend on it, so a layout change on the source side is a config change.
type Dialect struct {
	SetHeaderClass   string `yaml:"set_header_class"`
	SetTitleClass    string `yaml:"set_title_class"`
	SetDurationClass string `yaml:"set_duration_class"`
	SetIndexAttr     string `yaml:"set_index_attr"`
	GameClass        string `yaml:"game_class"`
	ServerClass      string `yaml:"server_class"`
	ServerAttr       string `yaml:"server_attr"`
	GameScoreClass   string `yaml:"game_score_class"`
	RowClass         string `yaml:"row_class"`
	PointClass       string `yaml:"point_class"`

	HomeParticipantClass string `yaml:"home_participant_class"`
	AwayParticipantClass string `yaml:"away_participant_class"`
	ParticipantIDAttr    string `yaml:"participant_id_attr"`
	ParticipantNameClass string `yaml:"participant_name_class"`

	SummarySetClass  string `yaml:"summary_set_class"`
	SummaryHomeClass string `yaml:"summary_home_class"`
	SummaryAwayClass string `yaml:"summary_away_class"`

	MomentumChartClass string `yaml:"momentum_chart_class"`
	MomentumBarClass   string `yaml:"momentum_bar_class"`
	GameIndexAttr      string `yaml:"game_index_attr"`
	BreakAttr          string `yaml:"break_attr"`
	MidlineAttr        string `yaml:"midline_attr"`
	ScaleAttr          string `yaml:"scale_attr"`
}

// DefaultDialect describes the point-by-point layout the scrapers emit today.
func DefaultDialect() Dialect {
	return Dialect{
		SetHeaderClass:   "pbp-set",
		SetTitleClass:    "pbp-set__title",
		SetDurationClass: "pbp-set__duration",
		SetIndexAttr:     "data-set",
		GameClass:        "pbp-game",
		ServerClass:      "pbp-game__server",
		ServerAttr:       "data-player-id",
		GameScoreClass:   "pbp-game__score",
		RowClass:         "pbp-game__row",
		PointClass:       "pbp-point",

		HomeParticipantClass: "participant--home",
		AwayParticipantClass: "participant--away",
		ParticipantIDAttr:    "data-player-id",
		ParticipantNameClass: "participant__name",

		SummarySetClass:  "summary-set",
		SummaryHomeClass: "summary-set__home",
		SummaryAwayClass: "summary-set__away",

		MomentumChartClass: "momentum",
		MomentumBarClass:   "momentum-bar",
		GameIndexAttr:      "data-game",
		BreakAttr:          "data-break",
		MidlineAttr:        "data-midline",
		ScaleAttr:          "data-scale",
	}
}

// WithDefaults fills every empty field from DefaultDialect.
func (d Dialect) WithDefaults() Dialect {
	def := DefaultDialect()
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&d.SetHeaderClass, def.SetHeaderClass)
	fill(&d.SetTitleClass, def.SetTitleClass)
	fill(&d.SetDurationClass, def.SetDurationClass)
	fill(&d.SetIndexAttr, def.SetIndexAttr)
	fill(&d.GameClass, def.GameClass)
	fill(&d.ServerClass, def.ServerClass)
	fill(&d.ServerAttr, def.ServerAttr)
	fill(&d.GameScoreClass, def.GameScoreClass)
	fill(&d.RowClass, def.RowClass)
	fill(&d.PointClass, def.PointClass)
	fill(&d.HomeParticipantClass, def.HomeParticipantClass)
	fill(&d.AwayParticipantClass, def.AwayParticipantClass)
	fill(&d.ParticipantIDAttr, def.ParticipantIDAttr)
	fill(&d.ParticipantNameClass, def.ParticipantNameClass)
	fill(&d.SummarySetClass, def.SummarySetClass)
	fill(&d.SummaryHomeClass, def.SummaryHomeClass)
	fill(&d.SummaryAwayClass, def.SummaryAwayClass)
	fill(&d.MomentumChartClass, def.MomentumChartClass)
	fill(&d.MomentumBarClass, def.MomentumBarClass)
	fill(&d.GameIndexAttr, def.GameIndexAttr)
	fill(&d.BreakAttr, def.BreakAttr)
	fill(&d.MidlineAttr, def.MidlineAttr)
	fill(&d.ScaleAttr, def.ScaleAttr)
	return d
}
