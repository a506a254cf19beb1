package editor

import (
	"fmt"
	"strings"

	"skinrepair/internal/repair"
)

// Level is the severity of a status message.
type Level int

const (
	LevelNone Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "none"
}

// Status is the short human-readable outcome shown after every operation.
type Status struct {
	Level Level
	Text  string
}

func info(format string, args ...any) Status {
	return Status{Level: LevelInfo, Text: fmt.Sprintf(format, args...)}
}

func warning(format string, args ...any) Status {
	return Status{Level: LevelWarning, Text: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) Status {
	return Status{Level: LevelError, Text: fmt.Sprintf(format, args...)}
}

// rebindStatus summarizes a rebind: match rate, root bone and up to limit
// lost bone names.
func rebindStatus(title string, res repair.RebindResult, limit int) Status {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "[%s] repaired:\n", title)
	}
	fmt.Fprintf(&sb, "bones matched: %d/%d (%.0f%%)\n", res.Matched, res.Total, res.Rate()*100)
	root := "unset"
	if res.RootBone != nil {
		root = res.RootBone.Name()
	}
	fmt.Fprintf(&sb, "root bone: %s\n", root)

	if len(res.Lost) == 0 {
		sb.WriteString("all bones matched")
		return Status{Level: LevelInfo, Text: sb.String()}
	}
	fmt.Fprintf(&sb, "lost bones: %d\n", len(res.Lost))
	sb.WriteString(truncateNames(res.Lost, limit))
	return Status{Level: LevelWarning, Text: sb.String()}
}

func truncateNames(names []string, limit int) string {
	if limit <= 0 || len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s... %d total", strings.Join(names[:limit], ", "), len(names))
}

// analysisStatus is Info when more than 80% of source bones resolve.
func analysisStatus(a repair.MatchAnalysis, limit int) Status {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bone match analysis:\n")
	fmt.Fprintf(&sb, "source bones: %d\n", a.SourceBones)
	fmt.Fprintf(&sb, "target bone names: %d\n", a.TargetNames)
	fmt.Fprintf(&sb, "matched: %d (%.1f%%)", a.Matched, a.Rate()*100)
	if len(a.Unmatched) > 0 {
		fmt.Fprintf(&sb, "\nunmatched bones:")
		for i, name := range a.Unmatched {
			if limit > 0 && i == limit {
				fmt.Fprintf(&sb, "\n  ... %d more", len(a.Unmatched)-limit)
				break
			}
			fmt.Fprintf(&sb, "\n  %s", name)
		}
	}
	level := LevelWarning
	if a.Rate() > 0.8 {
		level = LevelInfo
	}
	return Status{Level: level, Text: sb.String()}
}
