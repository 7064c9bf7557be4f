package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/momentum"
)

var (
	okColor   = color.New(color.FgGreen).SprintFunc()
	failColor = color.New(color.FgRed).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
)

func writeAnalysis(w io.Writer, a *models.MatchAnalysis) error {
	fmt.Fprintf(w, "Match %s", a.MatchID)
	if a.Registry.HomeName != "" || a.Registry.AwayName != "" {
		fmt.Fprintf(w, ": %s vs %s", a.Registry.HomeName, a.Registry.AwayName)
	}
	fmt.Fprintln(w)

	if len(a.Sets) == 0 {
		fmt.Fprintln(w, warnColor("no point-by-point data found"))
		return nil
	}
	if err := writeSetTable(w, a.Sets); err != nil {
		return err
	}
	if len(a.Momentum) > 0 {
		if err := writeMomentumTable(w, a.Momentum); err != nil {
			return err
		}
		s := momentum.Summarize(a.Momentum)
		fmt.Fprintf(w, "Momentum: %d values, mean %.1f, std dev %.1f, home favored %.0f%%, %d breaks\n",
			s.Count, s.Mean, s.StdDev, s.HomeFavoredShare*100, s.Breaks)
	}
	for _, issue := range a.MomentumIssues {
		fmt.Fprintf(w, "%s set %d game %d: %s\n", warnColor("momentum"), issue.SetNumber, issue.GameNumber, issue.Reason)
	}
	return nil
}

func writeSetTable(w io.Writer, sets []models.SetResolution) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Set", "Score", "Oracle", "Mode", "Status", "Ambiguous", "Inferred", "Reason"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range sets {
		oracle := "-"
		if s.Oracle != nil {
			oracle = s.Oracle.String()
		}
		status := okColor("resolved")
		if !s.Resolved {
			status = failColor("unresolved")
		}
		inferred := 0
		for _, g := range s.Games {
			inferred += g.InferredPoints()
		}
		data = append(data, []string{
			strconv.Itoa(s.SetNumber),
			s.FinalScore.String(),
			oracle,
			s.Mode.String(),
			status,
			strconv.Itoa(s.AmbiguousGameCount),
			strconv.Itoa(inferred),
			s.Reason,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeMomentumTable(w io.Writer, records []models.MomentumRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Set", "Game", "Value", "Source", "Zone", "Favored", "Break"})

	var data [][]string
	for _, r := range records {
		brk := ""
		if r.BreakOccurred {
			brk = "yes"
		}
		data = append(data, []string{
			strconv.Itoa(r.SetNumber),
			strconv.Itoa(r.GameNumber),
			strconv.FormatFloat(r.Value, 'f', 1, 64),
			string(r.Source),
			r.Zone,
			r.FavoredPlayer,
			brk,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeModes(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Priority", "Mode", "Server Row", "Order"})

	var data [][]string
	for _, m := range models.SemanticModes {
		row := "second"
		if m.ServerRowFirst() {
			row = "first"
		}
		order := "chronological"
		if m.Reversed() {
			order = "newest first"
		}
		data = append(data, []string{strconv.Itoa(m.Priority()), m.String(), row, order})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
