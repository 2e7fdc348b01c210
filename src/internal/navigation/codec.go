package navigation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/anidex/anidex/src/internal/domain"
)

// MaxLength is the largest identifier the transport accepts, in bytes.
const MaxLength = 64

const sep = ":"

var statusCodes = map[domain.WatchStatus]string{
	domain.WatchStatusPlanned:   "plan",
	domain.WatchStatusWatching:  "watch",
	domain.WatchStatusCompleted: "comp",
	domain.WatchStatusDropped:   "drop",
}

var resultKinds = []domain.ResultKind{
	domain.ResultAnimeSearch,
	domain.ResultCharacterSearch,
	domain.ResultAnimeCast,
	domain.ResultSeason,
}

// SessionKey derives the short key a result list is stored under. The same
// kind and query always map to the same key, so repeating a search replaces
// the previous list instead of piling up entries.
func SessionKey(kind domain.ResultKind, query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	return fmt.Sprintf("%016x", xxhash.Sum64String(string(kind)+"\x00"+q))
}

// Encode renders a as an identifier. Encoding Ignore yields "ignore", which
// decodes back to Ignore.
func Encode(a Action) string {
	var args []string
	switch v := a.(type) {
	case Page:
		args = []string{string(v.Kind), v.Key, strconv.Itoa(v.Index)}
	case ShowAnime:
		args = withOrigin([]string{itoa(v.AnimeID)}, v.From)
	case Synopsis:
		args = []string{itoa(v.AnimeID)}
	case Details:
		args = []string{itoa(v.AnimeID)}
	case Studio:
		args = []string{itoa(v.AnimeID)}
	case Trailer:
		args = []string{itoa(v.AnimeID)}
	case Cast:
		args = []string{itoa(v.AnimeID)}
	case ShowCharacter:
		args = []string{itoa(v.CharacterID)}
		if v.FromAnimeID > 0 {
			args = append(args, itoa(v.FromAnimeID))
		} else {
			args = withOrigin(args, v.From)
		}
	case Similar:
		args = []string{itoa(v.AnimeID)}
	case Streaming:
		args = []string{itoa(v.AnimeID)}
	case ToggleFavorite:
		args = withOrigin([]string{itoa(v.AnimeID)}, v.From)
	case Lists:
		args = []string{itoa(v.AnimeID)}
	case AddToList:
		args = []string{strconv.FormatInt(v.ListID, 10), itoa(v.AnimeID)}
	case SetStatus:
		args = []string{itoa(v.AnimeID), statusCodes[v.Status]}
	case ProgressEditor:
		args = []string{itoa(v.AnimeID)}
	case AdjustProgress:
		switch v.Op {
		case ProgressIncrement:
			args = []string{itoa(v.AnimeID), "+"}
		case ProgressDecrement:
			args = []string{itoa(v.AnimeID), "-"}
		default:
			args = []string{itoa(v.AnimeID), strconv.Itoa(v.Value)}
		}
	case Top:
		args = []string{v.Filter, strconv.Itoa(v.Page)}
	case Schedule:
		args = []string{v.Day}
	case Back:
		if v.To != nil {
			args = []string{Encode(v.To)}
		}
	case Profile:
		if v.View != ProfileMain && v.View != "" {
			args = []string{string(v.View)}
		}
		if v.View == ProfileWatchlist && v.Status != "" {
			args = append(args, statusCodes[v.Status])
		}
	}

	if len(args) == 0 {
		return a.Name()
	}
	return a.Name() + sep + strings.Join(args, sep)
}

func itoa(i int) string { return strconv.Itoa(i) }

// withOrigin appends the identifier of an origin view as trailing arguments.
func withOrigin(args []string, from Action) []string {
	if from == nil || !IsOrigin(from) {
		return args
	}
	return append(args, Encode(from))
}

// decodeOrigin parses trailing arguments back into an origin view.
func decodeOrigin(args []string) (Action, bool) {
	a := Decode(strings.Join(args, sep))
	return a, IsOrigin(a)
}

type decodeFunc func(args []string) (Action, bool)

// decoders is filled in init: origin arguments decode recursively through
// Decode, which reads this map.
var decoders map[string]decodeFunc

// tokens is every known token, longest first, for prefix matching.
var tokens []string

func init() {
	decoders = map[string]decodeFunc{
		tokNoop: func(args []string) (Action, bool) {
			return Noop{}, len(args) == 0
		},
		tokPage: func(args []string) (Action, bool) {
			if len(args) != 3 {
				return nil, false
			}
			kind := domain.ResultKind(args[0])
			if !slices.Contains(resultKinds, kind) || !validKey(args[1]) {
				return nil, false
			}
			idx, ok := nonNegative(args[2])
			return Page{Kind: kind, Key: args[1], Index: idx}, ok
		},
		tokAnime:     originAction(func(id int, from Action) Action { return ShowAnime{AnimeID: id, From: from} }),
		tokSynopsis:  animeAction(func(id int) Action { return Synopsis{AnimeID: id} }),
		tokDetails:   animeAction(func(id int) Action { return Details{AnimeID: id} }),
		tokStudio:    animeAction(func(id int) Action { return Studio{AnimeID: id} }),
		tokTrailer:   animeAction(func(id int) Action { return Trailer{AnimeID: id} }),
		tokCast:      animeAction(func(id int) Action { return Cast{AnimeID: id} }),
		tokSimilar:   animeAction(func(id int) Action { return Similar{AnimeID: id} }),
		tokStreaming: animeAction(func(id int) Action { return Streaming{AnimeID: id} }),
		tokFavorite:  originAction(func(id int, from Action) Action { return ToggleFavorite{AnimeID: id, From: from} }),
		tokLists:     animeAction(func(id int) Action { return Lists{AnimeID: id} }),
		tokProgress:  animeAction(func(id int) Action { return ProgressEditor{AnimeID: id} }),
		tokCharacter: func(args []string) (Action, bool) {
			if len(args) == 0 {
				return nil, false
			}
			id, ok := positive(args[0])
			if !ok {
				return nil, false
			}
			a := ShowCharacter{CharacterID: id}
			switch {
			case len(args) == 2:
				a.FromAnimeID, ok = positive(args[1])
			case len(args) > 2:
				a.From, ok = decodeOrigin(args[1:])
			}
			return a, ok
		},
		tokListAdd: func(args []string) (Action, bool) {
			if len(args) != 2 {
				return nil, false
			}
			listID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || listID <= 0 {
				return nil, false
			}
			animeID, ok := positive(args[1])
			return AddToList{ListID: listID, AnimeID: animeID}, ok
		},
		tokStatus: func(args []string) (Action, bool) {
			if len(args) != 2 {
				return nil, false
			}
			id, ok := positive(args[0])
			status, known := parseStatus(args[1])
			return SetStatus{AnimeID: id, Status: status}, ok && known
		},
		tokAdjust: func(args []string) (Action, bool) {
			if len(args) != 2 {
				return nil, false
			}
			id, ok := positive(args[0])
			if !ok {
				return nil, false
			}
			switch args[1] {
			case "+":
				return AdjustProgress{AnimeID: id, Op: ProgressIncrement}, true
			case "-":
				return AdjustProgress{AnimeID: id, Op: ProgressDecrement}, true
			}
			v, ok := nonNegative(args[1])
			return AdjustProgress{AnimeID: id, Op: ProgressSet, Value: v}, ok
		},
		tokTop: func(args []string) (Action, bool) {
			if len(args) != 2 || !slices.Contains(domain.TopFilters, args[0]) {
				return nil, false
			}
			page, ok := positive(args[1])
			return Top{Filter: args[0], Page: page}, ok
		},
		tokSchedule: func(args []string) (Action, bool) {
			if len(args) != 1 {
				return nil, false
			}
			day := args[0]
			if day != "today" && day != "week" && !slices.Contains(domain.ScheduleDays, day) {
				return nil, false
			}
			return Schedule{Day: day}, true
		},
		tokBack: func(args []string) (Action, bool) {
			if len(args) == 0 {
				return nil, false
			}
			to, ok := decodeOrigin(args)
			return Back{To: to}, ok
		},
		tokProfile: func(args []string) (Action, bool) {
			if len(args) == 0 {
				return Profile{View: ProfileMain}, true
			}
			view := ProfileView(args[0])
			switch view {
			case ProfileMain, ProfileFavorites, ProfileStats, ProfileAchievements, ProfileRecommendations, ProfileLists:
				return Profile{View: view}, len(args) == 1
			case ProfileWatchlist:
				if len(args) == 1 {
					return Profile{View: view}, true
				}
				status, ok := parseStatus(args[1])
				return Profile{View: view, Status: status}, ok && len(args) == 2
			}
			return nil, false
		},
	}

	tokens = make([]string, 0, len(decoders))
	for t := range decoders {
		tokens = append(tokens, t)
	}
	slices.SortFunc(tokens, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
}

// Decode parses an identifier. The action token is matched exactly, or else
// against the longest known token the identifier starts with, in which case
// the rest of the identifier becomes the first argument. Anything that does
// not parse decodes to Ignore.
func Decode(id string) Action {
	if id == "" || len(id) > MaxLength {
		return Ignore{Raw: id}
	}

	parts := strings.Split(id, sep)
	dec, ok := decoders[parts[0]]
	args := parts[1:]
	if !ok {
		tok := longestPrefix(parts[0])
		if tok == "" {
			return Ignore{Raw: id}
		}
		dec = decoders[tok]
		args = append([]string{parts[0][len(tok):]}, parts[1:]...)
	}

	a, ok := dec(args)
	if !ok {
		return Ignore{Raw: id}
	}
	return a
}

func longestPrefix(s string) string {
	for _, t := range tokens {
		if strings.HasPrefix(s, t) {
			return t
		}
	}
	return ""
}

func animeAction(build func(id int) Action) decodeFunc {
	return func(args []string) (Action, bool) {
		if len(args) != 1 {
			return nil, false
		}
		id, ok := positive(args[0])
		if !ok {
			return nil, false
		}
		return build(id), true
	}
}

// originAction decodes "<anime id>[:<origin identifier>]".
func originAction(build func(id int, from Action) Action) decodeFunc {
	return func(args []string) (Action, bool) {
		if len(args) == 0 {
			return nil, false
		}
		id, ok := positive(args[0])
		if !ok {
			return nil, false
		}
		if len(args) == 1 {
			return build(id, nil), true
		}
		from, ok := decodeOrigin(args[1:])
		return build(id, from), ok
	}
}

func positive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}

func nonNegative(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0
}

func parseStatus(code string) (domain.WatchStatus, bool) {
	for status, c := range statusCodes {
		if c == code {
			return status, true
		}
	}
	return "", false
}

func validKey(k string) bool {
	if k == "" || len(k) > 16 {
		return false
	}
	for _, r := range k {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
