package domain

type ResultKind string

const (
	ResultAnimeSearch     ResultKind = "anime"
	ResultCharacterSearch ResultKind = "character"
	ResultAnimeCast       ResultKind = "cast"
	ResultSeason          ResultKind = "season"
)

type ResultItem struct {
	ID     int    `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// ResultList is the server-held copy of a list the user is paging through.
// Navigation identifiers only carry its key and a page index.
type ResultList struct {
	Kind  ResultKind `json:"kind"`
	Query string     `json:"query"`
	// Title heads every page, e.g. the anime a cast list belongs to.
	Title string       `json:"title,omitempty"`
	Items []ResultItem `json:"items"`
}
