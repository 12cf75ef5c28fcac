package main

import (
	"panelforge/internal/ui"
)

// Standalone harness for poking at the terminal front end without a
// store or catalog behind it.
func main() {
	v := ui.New(ui.Options{})
	v.SetStats(ui.StatsState{
		Rows:      []ui.StatRow{{Key: "힘", Points: 2}, {Key: "재주", Points: 1}},
		Remaining: 3,
		Total:     6,
	})
	v.SetLevel(ui.LevelState{Level: 3, LevelIndex: 2, ExpInto: 40, ReqForNext: 200, Total: 290})
	_ = v.Run()
}
