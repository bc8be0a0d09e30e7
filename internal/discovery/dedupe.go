package discovery

import "github.com/sells-group/leadgen-cli/pkg/google"

// Dedupe keeps one place per place ID. The last occurrence wins, placed at
// the position where the ID first appeared. Places without an ID are dropped.
func Dedupe(places []google.Place) []google.Place {
	index := make(map[string]int, len(places))
	out := make([]google.Place, 0, len(places))
	for _, p := range places {
		if p.PlaceID == "" {
			continue
		}
		if i, ok := index[p.PlaceID]; ok {
			out[i] = p
			continue
		}
		index[p.PlaceID] = len(out)
		out = append(out, p)
	}
	return out
}
