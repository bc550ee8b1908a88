package domain

import "time"

// SourceID identifies one of the four data sources.
type SourceID string

const (
	SourceNews      SourceID = "nytimes"
	SourceSeismic   SourceID = "earthquakes"
	SourceAsteroids SourceID = "asteroids"
	SourceIntensity SourceID = "carbon-intensity"
)

// Source describes a data source and the fixed wording presentation uses for
// its failed and empty outcomes.
type Source struct {
	ID             SourceID `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	FailureMessage string   `json:"-"`
	EmptyMessage   string   `json:"-"`
}

// Sources lists every source in display order.
var Sources = []Source{
	{
		ID:             SourceNews,
		Title:          "NY Times Articles",
		Description:    "View news articles from this date in history",
		FailureMessage: "Failed to load articles. Please try again later.",
		EmptyMessage:   "No articles found for this date.",
	},
	{
		ID:             SourceSeismic,
		Title:          "Seismic Activity",
		Description:    "Explore earthquakes that occurred on this date",
		FailureMessage: "Failed to load earthquake data. Please try again later.",
		EmptyMessage:   "No significant earthquakes recorded on this date.",
	},
	{
		ID:             SourceAsteroids,
		Title:          "Asteroid Data",
		Description:    "Learn about near-Earth objects from this date",
		FailureMessage: "Failed to load asteroid data. Please try again later.",
		EmptyMessage:   "No asteroid data available for this date.",
	},
	{
		ID:             SourceIntensity,
		Title:          "GB Carbon Intensity",
		Description:    "View Great Britain's electricity carbon intensity data for this date",
		FailureMessage: "Failed to load carbon intensity data. Please try again later.",
		EmptyMessage:   "No carbon intensity data available for this date.",
	},
}

// LookupSource returns the Source with the given id.
func LookupSource(id SourceID) (Source, bool) {
	for _, s := range Sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// DateSuggestions are the rotating prompts offered when asking for a date.
var DateSuggestions = []string{
	"your birthday",
	"your mother's birthday",
	"your father's birthday",
	"your anniversary",
	"your graduation day",
	"the date of your first baseball game",
	"your first day of school",
	"your favorite holiday",
	"a historic event",
	"your best friend's birthday",
}

// SuggestionInterval is how long each suggestion is shown before rotating.
const SuggestionInterval = 4 * time.Second

// SuggestionAt returns the suggestion on display at t, cycling through
// DateSuggestions in order.
func SuggestionAt(t time.Time) string {
	slot := t.Unix() / int64(SuggestionInterval/time.Second)
	n := int64(len(DateSuggestions))
	return DateSuggestions[((slot%n)+n)%n]
}
