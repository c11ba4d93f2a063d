// Package sessionid mints human-readable session ids that double as
// shareable room codes, like "brave-titan-42".
package sessionid

import (
	"fmt"
	"math/rand"
	"strings"
)

var adjectives = []string{
	"agile", "bleu", "calme", "doux", "epique", "fort", "grand", "habile", "intense", "joyeux",
	"brave", "clair", "drole", "efficace", "fier", "gentil", "haut", "ideal", "juste", "noble",
}

var nouns = []string{
	"lion", "tigre", "aigle", "comete", "defi", "eclair", "feu", "guerrier", "heros", "impact",
	"jet", "lune", "mythe", "ninja", "ocean", "prodige", "quete", "reve", "soleil", "titan",
}

// New returns a readable id of the form adjective-noun-NN. Ids are not
// guaranteed unique; collisions simply land two groups in the same
// session, which the session model tolerates.
func New() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	num := rand.Intn(100)
	return strings.ToLower(fmt.Sprintf("%s-%s-%d", adj, noun, num))
}
