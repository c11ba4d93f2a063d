package challenge

// SeriesKind classifies a single entry within a day's program.
type SeriesKind string

const (
	SeriesExercise SeriesKind = "exercise"
	SeriesRest     SeriesKind = "rest"
	SeriesMax      SeriesKind = "max"
)

// DayKind tags a whole day. The tags match the values used in the
// challenge definition files ("repos" = rest day).
type DayKind string

const (
	DayRest     DayKind = "repos"
	DayMax      DayKind = "max"
	DayExercise DayKind = "exercices"
)

// SeriesEntry is one timed or rep-based unit within a day. Exactly one
// of Time/Repetitions is meaningful depending on the kind; a zero Time
// means "use the default duration for this kind".
type SeriesEntry struct {
	Name        string     `json:"name" yaml:"name"`
	Type        SeriesKind `json:"type" yaml:"type"`
	Time        int        `json:"time,omitempty" yaml:"time,omitempty"`
	Repetitions int        `json:"repetitions,omitempty" yaml:"repetitions,omitempty"`
}

// Day is one day's program within a challenge. Day numbers are 1-based
// in the definition files; Series may be empty for rest days.
type Day struct {
	Day    int           `json:"day" yaml:"day"`
	Type   DayKind       `json:"type,omitempty" yaml:"type,omitempty"`
	Series []SeriesEntry `json:"series,omitempty" yaml:"series,omitempty"`
}

// Challenge is a named workout program. Immutable once loaded; every
// session holding a reference shares the same catalog-owned value.
type Challenge struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Data []Day  `json:"data" yaml:"data"`
}

// FirstSeries returns the first series entry of the first day, if any.
func (c *Challenge) FirstSeries() (SeriesEntry, bool) {
	if len(c.Data) == 0 || len(c.Data[0].Series) == 0 {
		return SeriesEntry{}, false
	}
	return c.Data[0].Series[0], true
}
