package engine

import (
	"strconv"
	"strings"
)

// Info is the parsed form of a UCI "info ..." line.
type Info struct {
	Depth    int
	SelDepth int
	Nodes    int64
	Nps      int64
	TimeMs   int64
	ScoreCp  int
	HasScore bool
	Pv       []string
}

// ParseInfoLine parses whitespace-separated key/value pairs. "score mate n"
// is folded into the centipawn ledger as ±100·n. "pv" consumes the rest of
// the line. Unknown keys are skipped one token at a time.
func ParseInfoLine(line string) (Info, bool) {
	var fields = strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Info{}, false
	}
	var info Info
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				i++
				info.Depth, _ = strconv.Atoi(fields[i])
			}
		case "seldepth":
			if i+1 < len(fields) {
				i++
				info.SelDepth, _ = strconv.Atoi(fields[i])
			}
		case "nodes":
			if i+1 < len(fields) {
				i++
				info.Nodes, _ = strconv.ParseInt(fields[i], 10, 64)
			}
		case "nps":
			if i+1 < len(fields) {
				i++
				info.Nps, _ = strconv.ParseInt(fields[i], 10, 64)
			}
		case "time":
			if i+1 < len(fields) {
				i++
				info.TimeMs, _ = strconv.ParseInt(fields[i], 10, 64)
			}
		case "score":
			if i+2 < len(fields) {
				var kind = fields[i+1]
				var n, err = strconv.Atoi(fields[i+2])
				if err == nil {
					switch kind {
					case "cp":
						info.ScoreCp = n
						info.HasScore = true
						i += 2
					case "mate":
						info.ScoreCp = 100 * n
						info.HasScore = true
						i += 2
					}
				}
			}
		case "pv":
			info.Pv = append(info.Pv, fields[i+1:]...)
			i = len(fields)
		}
	}
	return info, true
}
