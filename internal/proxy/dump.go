package proxy

import (
	"log"

	"autoalt/alt"
)

const dumpLimit = 256

// dumpReport logs every tag of a filter pass, truncating long tag text.
func dumpReport(logger *log.Logger, rep *alt.Report) {
	if logger == nil || rep == nil {
		return
	}
	for _, t := range rep.Tags {
		if t.Outcome != alt.Changed {
			logger.Printf("TAG @%d %s %s", t.Offset, t.Outcome, clip(t.Original, dumpLimit))
			continue
		}
		logger.Printf("TAG @%d %s %s -> %s", t.Offset, t.Outcome, clip(t.Original, dumpLimit), clip(t.Updated, dumpLimit))
	}
}

func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
